package workers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const BalanceRefreshInterval = 5 * time.Minute

// BalanceRefresher snapshots on-chain balances of linked wallets.
type BalanceRefresher interface {
	RefreshBalances(ctx context.Context) (int, error)
}

// BalanceSyncWorker keeps wallet_balances fresh.
type BalanceSyncWorker struct {
	refresher BalanceRefresher
	interval  time.Duration
}

func NewBalanceSyncWorker(refresher BalanceRefresher) *BalanceSyncWorker {
	return &BalanceSyncWorker{refresher: refresher, interval: BalanceRefreshInterval}
}

func (w *BalanceSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting wallet balance sync worker (chain → wallet_balances)…")
	go w.run(ctx)
}

func (w *BalanceSyncWorker) run(ctx context.Context) {
	if err := w.sync(ctx); err != nil {
		log.Printf("⚠️ Initial balance sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sync(ctx); err != nil {
				log.Printf("❌ Balance sync failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Wallet balance sync worker stopped")
			return
		}
	}
}

func (w *BalanceSyncWorker) sync(ctx context.Context) error {
	n, err := w.refresher.RefreshBalances(ctx)
	if err != nil {
		return err
	}
	log.Printf("[BALANCES] ✅ Refreshed %d wallet snapshot(s)", n)
	return nil
}
