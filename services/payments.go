package services

import (
	"context"
	"errors"
	"fmt"

	"aura-api/models"
	"aura-api/web3"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxVerifyAttempts bounds how long a pending payment is retried
// (~10 minutes at the worker's 15s interval).
const MaxVerifyAttempts = 40

// TransferVerifier checks a stablecoin transfer on chain.
type TransferVerifier interface {
	VerifyTransfer(ctx context.Context, txHash, from, to string, minAmount decimal.Decimal) (*web3.Transfer, error)
}

type verifyResult int

const (
	verifyConfirmed verifyResult = iota
	verifyRetry
	verifyFailed
)

// classifyVerify decides what a verification error means for a payment row
// that has already been tried attempts times (including this one).
func classifyVerify(err error, attempts int) (verifyResult, string) {
	switch {
	case err == nil:
		return verifyConfirmed, ""
	case errors.Is(err, web3.ErrTxReverted),
		errors.Is(err, web3.ErrTransferNotFound),
		errors.Is(err, web3.ErrInvalidTxHash),
		errors.Is(err, web3.ErrInvalidAddress):
		return verifyFailed, err.Error()
	case attempts >= MaxVerifyAttempts:
		return verifyFailed, fmt.Sprintf("gave up after %d attempts: %v", attempts, err)
	default:
		// receipt not mined yet, or RPC trouble
		return verifyRetry, err.Error()
	}
}

// txHashUsed reports whether hash already backs a vouch or a purchase.
func txHashUsed(db *gorm.DB, hash string) (bool, error) {
	var n int64
	if err := db.Model(&models.Vouch{}).Unscoped().Where("tx_hash = ?", hash).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := db.Model(&models.SteezePurchase{}).Unscoped().Where("tx_hash = ?", hash).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// checkUSDCAmount enforces bounds and at most 6 decimals.
func checkUSDCAmount(amount, min, max decimal.Decimal) error {
	if amount.LessThan(min) || amount.GreaterThan(max) {
		return invalid("amount", fmt.Sprintf("must be between %s and %s USDC", min, max))
	}
	if !amount.Equal(amount.Truncate(web3.USDCDecimals)) {
		return invalid("amount", "at most 6 decimal places")
	}
	return nil
}
