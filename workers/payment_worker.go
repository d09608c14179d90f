package workers

import (
	"context"
	"time"

	"aura-api/models"

	log "github.com/sirupsen/logrus"
)

const (
	PaymentPollInterval = 15 * time.Second
	paymentBatchSize    = 50
)

// PendingVouches is the subset of the vouch service the worker drives.
type PendingVouches interface {
	PendingIDs(ctx context.Context, limit int) ([]string, error)
	ConfirmPending(ctx context.Context, id string) (*models.Vouch, error)
}

// PendingPurchases is the subset of the steeze service the worker drives.
type PendingPurchases interface {
	PendingIDs(ctx context.Context, limit int) ([]string, error)
	ConfirmPending(ctx context.Context, id string) (*models.SteezePurchase, error)
}

// PaymentWorker re-verifies pending vouches and steeze purchases until their
// receipts land or the attempt budget runs out.
type PaymentWorker struct {
	Vouches   PendingVouches
	Purchases PendingPurchases
	interval  time.Duration
}

func NewPaymentWorker(vouches PendingVouches, purchases PendingPurchases) *PaymentWorker {
	return &PaymentWorker{Vouches: vouches, Purchases: purchases, interval: PaymentPollInterval}
}

// Start runs the worker until ctx is cancelled.
func (w *PaymentWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting payment confirmation worker…")
	go w.run(ctx)
}

func (w *PaymentWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Payment confirmation worker stopped")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick processes one batch of each kind and reports how many were looked at.
func (w *PaymentWorker) Tick(ctx context.Context) (vouches, purchases int) {
	if w.Vouches != nil {
		ids, err := w.Vouches.PendingIDs(ctx, paymentBatchSize)
		if err != nil {
			log.Printf("[PAYMENTS] ❌ Failed to list pending vouches: %v", err)
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			v, err := w.Vouches.ConfirmPending(ctx, id)
			vouches++
			if err != nil {
				log.Printf("[PAYMENTS] ⚠️ Vouch %s: %v", id, err)
				continue
			}
			if v.Status != models.PaymentStatusPending {
				log.Printf("[PAYMENTS] ✅ Vouch %s → %s", id, v.Status)
			}
		}
	}

	if w.Purchases != nil {
		ids, err := w.Purchases.PendingIDs(ctx, paymentBatchSize)
		if err != nil {
			log.Printf("[PAYMENTS] ❌ Failed to list pending purchases: %v", err)
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			p, err := w.Purchases.ConfirmPending(ctx, id)
			purchases++
			if err != nil {
				log.Printf("[PAYMENTS] ⚠️ Purchase %s: %v", id, err)
				continue
			}
			if p.Status != models.PaymentStatusPending {
				log.Printf("[PAYMENTS] ✅ Purchase %s → %s", id, p.Status)
			}
		}
	}
	return
}
