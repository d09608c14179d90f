package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aura-api/metrics"
	"aura-api/models"
	"aura-api/web3"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	SteezePerUSDC   = decimal.NewFromInt(100)
	MinPurchaseUSDC = decimal.RequireFromString("0.01")
	MaxPurchaseUSDC = decimal.NewFromInt(10000)
)

// PurchaseInput is the body of POST /steeze/purchase.
type PurchaseInput struct {
	Amount decimal.Decimal `json:"amount"`
	TxHash string          `json:"tx_hash" validate:"required"`
}

// SteezeFor is floor(amount × 100).
func SteezeFor(amount decimal.Decimal) int64 {
	return amount.Mul(SteezePerUSDC).Floor().IntPart()
}

type SteezeService struct {
	DB       *gorm.DB
	Verifier TransferVerifier
	Treasury string
	Now      func() time.Time
}

func NewSteezeService(db *gorm.DB, verifier TransferVerifier, treasury string) *SteezeService {
	return &SteezeService{DB: db, Verifier: verifier, Treasury: treasury, Now: time.Now}
}

// Purchase records a USDC payment to the treasury and credits steeze once
// it is verified.
func (s *SteezeService) Purchase(ctx context.Context, userID string, in PurchaseInput) (*models.SteezePurchase, error) {
	if s.Verifier == nil || s.Treasury == "" {
		return nil, ErrUnavailable
	}
	if err := checkUSDCAmount(in.Amount, MinPurchaseUSDC, MaxPurchaseUSDC); err != nil {
		return nil, err
	}
	hash, err := web3.NormalizeTxHash(in.TxHash)
	if err != nil {
		return nil, invalid("tx_hash", "must be a 0x-prefixed 32 byte hash")
	}
	treasury, err := web3.NormalizeAddress(s.Treasury)
	if err != nil {
		return nil, ErrUnavailable
	}

	db := s.DB.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	if !user.HasWallet() {
		return nil, invalid("wallet", "link a wallet before purchasing")
	}

	used, err := txHashUsed(db, hash)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrDuplicateTx
	}

	p := &models.SteezePurchase{
		ID:          uuid.NewString(),
		UserID:      userID,
		AmountUSDC:  in.Amount,
		TxHash:      hash,
		FromAddress: user.Wallet(),
		ToAddress:   treasury,
		Status:      models.PaymentStatusPending,
	}
	if err := db.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateTx
		}
		return nil, fmt.Errorf("store purchase: %w", err)
	}
	log.WithFields(log.Fields{"purchase_id": p.ID, "amount": p.AmountUSDC.String(), "tx": hash}).
		Println("🛒 [STEEZE] Purchase submitted")

	return s.verify(ctx, p)
}

// ConfirmPending re-verifies a pending purchase (worker entry point).
func (s *SteezeService) ConfirmPending(ctx context.Context, id string) (*models.SteezePurchase, error) {
	if s.Verifier == nil {
		return nil, ErrUnavailable
	}
	var p models.SteezePurchase
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if p.Status != models.PaymentStatusPending {
		return &p, nil
	}
	return s.verify(ctx, &p)
}

// PendingIDs lists purchases awaiting confirmation, oldest first.
func (s *SteezeService) PendingIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.SteezePurchase{}).
		Where("status = ?", models.PaymentStatusPending).
		Order("created_at ASC").Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *SteezeService) verify(ctx context.Context, p *models.SteezePurchase) (*models.SteezePurchase, error) {
	_, verr := s.Verifier.VerifyTransfer(ctx, p.TxHash, p.FromAddress, p.ToAddress, p.AmountUSDC)
	attempts := p.Attempts + 1
	result, reason := classifyVerify(verr, attempts)
	db := s.DB.WithContext(ctx)

	switch result {
	case verifyRetry:
		if err := db.Model(&models.SteezePurchase{}).Where("id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			UpdateColumn("attempts", attempts).Error; err != nil {
			return nil, fmt.Errorf("record purchase attempt: %w", err)
		}
		p.Attempts = attempts
		return p, nil

	case verifyFailed:
		if err := db.Model(&models.SteezePurchase{}).Where("id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusFailed,
				"failure_reason": reason,
				"attempts":       attempts,
			}).Error; err != nil {
			return nil, err
		}
		p.Status, p.FailureReason, p.Attempts = models.PaymentStatusFailed, reason, attempts
		metrics.PaymentsVerified.WithLabelValues("steeze", "failed").Inc()
		log.Printf("❌ [STEEZE] %s failed verification: %s", p.ID, reason)
		return p, fmt.Errorf("%w: %s", ErrTxNotVerified, reason)
	}

	now := s.Now()
	steeze := SteezeFor(p.AmountUSDC)
	applied := false
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SteezePurchase{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusConfirmed,
				"steeze_awarded": steeze,
				"confirmed_at":   now,
				"attempts":       attempts,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.First(p, "id = ?", p.ID).Error
		}
		if err := credit(tx, colSteeze, p.UserID, steeze); err != nil {
			return err
		}
		p.Status, p.SteezeAwarded, p.ConfirmedAt = models.PaymentStatusConfirmed, steeze, &now
		applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Printf("ℹ️ [STEEZE] %s already settled as %s", p.ID, p.Status)
		return p, nil
	}
	metrics.PaymentsVerified.WithLabelValues("steeze", "confirmed").Inc()
	log.WithFields(log.Fields{"purchase_id": p.ID, "steeze": steeze}).Println("✅ [STEEZE] Purchase confirmed")
	return p, nil
}

// History lists a user's purchases, newest first.
func (s *SteezeService) History(ctx context.Context, userID string, limit int) ([]models.SteezePurchase, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.SteezePurchase
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}
