package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aura-api/models"
	"aura-api/web3"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChainClient is the web3 surface the service needs.
type ChainClient interface {
	TransferVerifier
	BalanceOf(ctx context.Context, address string) (*web3.Balance, error)
	Transfers(ctx context.Context, txHash string) ([]web3.Transfer, error)
}

type Web3Service struct {
	DB       *gorm.DB
	Chain    ChainClient // nil when RPC_URL is unset
	ChainID  int64
	USDC     string
	Treasury string
}

func NewWeb3Service(db *gorm.DB, chain ChainClient, chainID int64, usdc, treasury string) *Web3Service {
	return &Web3Service{DB: db, Chain: chain, ChainID: chainID, USDC: usdc, Treasury: treasury}
}

// PublicConfig is what the client needs to build payments.
func (s *Web3Service) PublicConfig() map[string]interface{} {
	return map[string]interface{}{
		"enabled":          s.Chain != nil,
		"chain_id":         s.ChainID,
		"usdc_address":     s.USDC,
		"usdc_decimals":    web3.USDCDecimals,
		"treasury_address": s.Treasury,
		"steeze_per_usdc":  SteezePerUSDC.IntPart(),
		"min_vouch_usdc":   MinVouchUSDC.String(),
		"max_vouch_usdc":   MaxVouchUSDC.String(),
	}
}

// Balance reads live balances of address.
func (s *Web3Service) Balance(ctx context.Context, address string) (*web3.Balance, error) {
	if s.Chain == nil {
		return nil, ErrUnavailable
	}
	if _, err := web3.ParseAddress(address); err != nil {
		return nil, invalid("address", "must be a 0x address")
	}
	return s.Chain.BalanceOf(ctx, address)
}

// DecodeTx lists the USDC transfers of a mined transaction.
func (s *Web3Service) DecodeTx(ctx context.Context, txHash string) ([]web3.Transfer, error) {
	if s.Chain == nil {
		return nil, ErrUnavailable
	}
	if _, err := web3.ParseTxHash(txHash); err != nil {
		return nil, invalid("tx_hash", "must be a 0x-prefixed 32 byte hash")
	}
	transfers, err := s.Chain.Transfers(ctx, txHash)
	switch {
	case errors.Is(err, web3.ErrReceiptPending):
		return nil, fmt.Errorf("%w: receipt not available yet", ErrNotFound)
	case errors.Is(err, web3.ErrTxReverted):
		return nil, fmt.Errorf("%w: %v", ErrTxNotVerified, err)
	}
	return transfers, err
}

// RefreshBalances snapshots balances of every linked wallet into
// wallet_balances, upserting on address.
func (s *Web3Service) RefreshBalances(ctx context.Context) (int, error) {
	if s.Chain == nil {
		return 0, ErrUnavailable
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).
		Select("id", "wallet_address").
		Where("wallet_address IS NOT NULL AND wallet_address <> ''").
		Find(&users).Error; err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	snapshots := make([]models.WalletBalance, 0, len(users))
	for _, u := range users {
		if ctx.Err() != nil {
			break
		}
		bal, err := s.Chain.BalanceOf(ctx, u.Wallet())
		if err != nil {
			log.Printf("⚠️ [WALLETS] Balance read failed for %s: %v", u.Wallet(), err)
			continue
		}
		snapshots = append(snapshots, models.WalletBalance{
			UserID:        u.ID,
			Address:       bal.Address,
			ChainID:       s.ChainID,
			NativeWei:     bal.NativeWei.String(),
			USDCBalance:   bal.USDC.StringFixed(web3.USDCDecimals),
			BlockNumber:   bal.BlockNumber,
			LastCheckedAt: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if len(snapshots) == 0 {
		return 0, nil
	}

	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"chain_id",
			"native_wei",
			"usdc_balance",
			"block_number",
			"last_checked_at",
			"updated_at",
		}),
	}).Create(&snapshots).Error; err != nil {
		return 0, fmt.Errorf("upsert wallet balances: %w", err)
	}
	return len(snapshots), nil
}

// SnapshotFor returns the last stored balance of a user's wallet.
func (s *Web3Service) SnapshotFor(ctx context.Context, userID string) (*models.WalletBalance, error) {
	var wb models.WalletBalance
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("last_checked_at DESC").First(&wb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &wb, nil
}
