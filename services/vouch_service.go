// services/vouch_service.go
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
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var (
	MinVouchUSDC = decimal.NewFromInt(1)
	MaxVouchUSDC = decimal.NewFromInt(1000)
	// AuraPerUSDC converts a vouch into aura before the sender's multiplier.
	AuraPerUSDC = decimal.NewFromInt(10)
)

// VouchInput is the body of POST /vouches.
type VouchInput struct {
	RecipientID string          `json:"recipient_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	TxHash      string          `json:"tx_hash" validate:"required"`
	Message     string          `json:"message" validate:"max=280"`
}

// VouchAura is floor(amount × 10 × multiplier).
func VouchAura(amount decimal.Decimal, multiplier float64) int64 {
	return amount.Mul(AuraPerUSDC).Mul(decimal.NewFromFloat(multiplier)).Floor().IntPart()
}

type VouchService struct {
	DB        *gorm.DB
	Verifier  TransferVerifier // nil when web3 is not configured
	Notifier  *NotificationService
	Badges    *BadgeService
	Moderator *Moderator
	limiter   *KeyedLimiter
	Now       func() time.Time
}

func NewVouchService(db *gorm.DB, verifier TransferVerifier, notifier *NotificationService, badges *BadgeService, moderator *Moderator) *VouchService {
	return &VouchService{
		DB:        db,
		Verifier:  verifier,
		Notifier:  notifier,
		Badges:    badges,
		Moderator: moderator,
		limiter:   NewKeyedLimiter(rate.Every(10*time.Second), 3),
		Now:       time.Now,
	}
}

// Create records a vouch and tries to verify it immediately. The returned
// vouch is confirmed, or pending when the receipt is not available yet.
// A failed verification returns the stored vouch with ErrTxNotVerified.
func (s *VouchService) Create(ctx context.Context, senderID string, in VouchInput) (*models.Vouch, error) {
	if s.Verifier == nil {
		return nil, ErrUnavailable
	}
	if !s.limiter.Allow(senderID) {
		return nil, ErrRateLimited
	}
	if senderID == in.RecipientID {
		return nil, invalid("recipient_id", "cannot vouch for yourself")
	}
	if err := checkUSDCAmount(in.Amount, MinVouchUSDC, MaxVouchUSDC); err != nil {
		return nil, err
	}
	hash, err := web3.NormalizeTxHash(in.TxHash)
	if err != nil {
		return nil, invalid("tx_hash", "must be a 0x-prefixed 32 byte hash")
	}
	if err := s.Moderator.Check("message", in.Message); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var sender, recipient models.User
	if err := db.First(&sender, "id = ?", senderID).Error; err != nil {
		return nil, err
	}
	if err := db.First(&recipient, "id = ?", in.RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: recipient", ErrNotFound)
		}
		return nil, err
	}
	if !sender.HasWallet() {
		return nil, invalid("wallet", "link a wallet before vouching")
	}
	if !recipient.HasWallet() {
		return nil, invalid("recipient_id", "recipient has no linked wallet")
	}

	used, err := txHashUsed(db, hash)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrDuplicateTx
	}

	vouch := &models.Vouch{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: in.RecipientID,
		Amount:      in.Amount,
		TxHash:      hash,
		FromAddress: sender.Wallet(),
		ToAddress:   recipient.Wallet(),
		Status:      models.PaymentStatusPending,
		Message:     in.Message,
	}
	if err := db.Create(vouch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateTx
		}
		return nil, fmt.Errorf("store vouch: %w", err)
	}
	log.WithFields(log.Fields{"vouch_id": vouch.ID, "amount": vouch.Amount.String(), "tx": hash}).
		Println("💸 [VOUCH] Submitted")

	return s.verify(ctx, vouch)
}

// ConfirmPending re-verifies a pending vouch (worker entry point).
func (s *VouchService) ConfirmPending(ctx context.Context, id string) (*models.Vouch, error) {
	if s.Verifier == nil {
		return nil, ErrUnavailable
	}
	var v models.Vouch
	if err := s.DB.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if v.Status != models.PaymentStatusPending {
		return &v, nil
	}
	return s.verify(ctx, &v)
}

// PendingIDs lists vouches awaiting confirmation, oldest first.
func (s *VouchService) PendingIDs(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.Vouch{}).
		Where("status = ?", models.PaymentStatusPending).
		Order("created_at ASC").Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (s *VouchService) verify(ctx context.Context, v *models.Vouch) (*models.Vouch, error) {
	_, verr := s.Verifier.VerifyTransfer(ctx, v.TxHash, v.FromAddress, v.ToAddress, v.Amount)
	attempts := v.Attempts + 1
	result, reason := classifyVerify(verr, attempts)
	db := s.DB.WithContext(ctx)

	switch result {
	case verifyRetry:
		if err := db.Model(&models.Vouch{}).Where("id = ? AND status = ?", v.ID, models.PaymentStatusPending).
			UpdateColumn("attempts", attempts).Error; err != nil {
			return nil, fmt.Errorf("record vouch attempt: %w", err)
		}
		v.Attempts = attempts
		log.Printf("⏳ [VOUCH] %s still pending (attempt %d): %s", v.ID, attempts, reason)
		return v, nil

	case verifyFailed:
		res := db.Model(&models.Vouch{}).Where("id = ? AND status = ?", v.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":         models.PaymentStatusFailed,
				"failure_reason": reason,
				"attempts":       attempts,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		v.Status, v.FailureReason, v.Attempts = models.PaymentStatusFailed, reason, attempts
		metrics.PaymentsVerified.WithLabelValues("vouch", "failed").Inc()
		log.Printf("❌ [VOUCH] %s failed verification: %s", v.ID, reason)
		return v, fmt.Errorf("%w: %s", ErrTxNotVerified, reason)
	}

	if _, err := s.apply(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// apply credits the recipient exactly once: the status flip from pending is
// the guard. It reports false when another run already settled the vouch,
// in which case v is reloaded.
func (s *VouchService) apply(ctx context.Context, v *models.Vouch) (bool, error) {
	now := s.Now()
	applied := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sender models.User
		if err := tx.First(&sender, "id = ?", v.SenderID).Error; err != nil {
			return err
		}
		multiplier := MultiplierForStreak(sender.CurrentStreak)
		aura := VouchAura(v.Amount, multiplier)

		res := tx.Model(&models.Vouch{}).
			Where("id = ? AND status = ?", v.ID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":       models.PaymentStatusConfirmed,
				"aura_awarded": aura,
				"multiplier":   multiplier,
				"confirmed_at": now,
				"attempts":     v.Attempts + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.First(v, "id = ?", v.ID).Error
		}

		if err := credit(tx, colAura, v.RecipientID, aura); err != nil {
			return err
		}
		if err := bumpCounter(tx, "vouches_received", v.RecipientID); err != nil {
			return err
		}

		if s.Notifier != nil {
			s.Notifier.Notify(tx, v.RecipientID, models.NotificationVouchReceived,
				"You were vouched for",
				fmt.Sprintf("@%s vouched %s USDC: +%d aura", sender.Username, v.Amount.String(), aura),
				"💎", v.ID)
		}
		v.Status, v.AuraAwarded, v.Multiplier, v.ConfirmedAt = models.PaymentStatusConfirmed, aura, multiplier, &now
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		log.Printf("ℹ️ [VOUCH] %s already settled as %s", v.ID, v.Status)
		return false, nil
	}

	metrics.PaymentsVerified.WithLabelValues("vouch", "confirmed").Inc()
	log.WithFields(log.Fields{"vouch_id": v.ID, "aura": v.AuraAwarded, "recipient": v.RecipientID}).
		Println("✅ [VOUCH] Confirmed")

	if s.Badges != nil {
		if err := s.Badges.AutoAwardBadges(ctx, v.RecipientID); err != nil {
			log.Printf("⚠️ [VOUCH] Badge check failed for %s: %v", v.RecipientID, err)
		}
	}
	return true, nil
}

// Received lists vouches a user received.
func (s *VouchService) Received(ctx context.Context, userID string, limit int) ([]models.Vouch, error) {
	return s.list(ctx, "recipient_id = ?", userID, limit)
}

// Sent lists vouches a user sent.
func (s *VouchService) Sent(ctx context.Context, userID string, limit int) ([]models.Vouch, error) {
	return s.list(ctx, "sender_id = ?", userID, limit)
}

func (s *VouchService) list(ctx context.Context, where, userID string, limit int) ([]models.Vouch, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var vouches []models.Vouch
	err := s.DB.WithContext(ctx).
		Preload("Sender").Preload("Recipient").
		Where(where, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&vouches).Error
	return vouches, err
}
