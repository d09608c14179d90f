package services

import (
	"context"
	"errors"
	"testing"

	"aura-api/web3"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVouchAura(t *testing.T) {
	assert.Equal(t, int64(10), VouchAura(decimal.NewFromInt(1), 1.0))
	assert.Equal(t, int64(62), VouchAura(decimal.RequireFromString("5"), 1.25))
	assert.Equal(t, int64(37), VouchAura(decimal.RequireFromString("2.5"), 1.5))
	assert.Equal(t, int64(30000), VouchAura(decimal.NewFromInt(1000), 3.0))
}

func TestSteezeFor(t *testing.T) {
	assert.Equal(t, int64(100), SteezeFor(decimal.NewFromInt(1)))
	assert.Equal(t, int64(199), SteezeFor(decimal.RequireFromString("1.999")))
	assert.Equal(t, int64(1), SteezeFor(decimal.RequireFromString("0.01")))
}

func TestCheckUSDCAmount(t *testing.T) {
	ok := []string{"1", "10.5", "999.999999", "1000"}
	for _, s := range ok {
		assert.NoError(t, checkUSDCAmount(decimal.RequireFromString(s), MinVouchUSDC, MaxVouchUSDC), s)
	}
	bad := []string{"0", "0.99", "-5", "1000.01", "1.0000001"}
	for _, s := range bad {
		assert.True(t, IsValidation(checkUSDCAmount(decimal.RequireFromString(s), MinVouchUSDC, MaxVouchUSDC)), s)
	}
}

func TestClassifyVerify(t *testing.T) {
	res, _ := classifyVerify(nil, 1)
	assert.Equal(t, verifyConfirmed, res)

	res, _ = classifyVerify(web3.ErrReceiptPending, 1)
	assert.Equal(t, verifyRetry, res)

	res, _ = classifyVerify(errors.New("dial tcp: timeout"), 3)
	assert.Equal(t, verifyRetry, res)

	res, reason := classifyVerify(web3.ErrReceiptPending, MaxVerifyAttempts)
	assert.Equal(t, verifyFailed, res)
	assert.Contains(t, reason, "gave up")

	res, _ = classifyVerify(web3.ErrTxReverted, 1)
	assert.Equal(t, verifyFailed, res)

	res, _ = classifyVerify(web3.ErrTransferNotFound, 1)
	assert.Equal(t, verifyFailed, res)
}

type stubVerifier struct{}

func (stubVerifier) VerifyTransfer(ctx context.Context, txHash, from, to string, minAmount decimal.Decimal) (*web3.Transfer, error) {
	return nil, web3.ErrReceiptPending
}

func TestVouchCreateGuards(t *testing.T) {
	unconfigured := NewVouchService(nil, nil, nil, nil, NewModerator(nil))
	_, err := unconfigured.Create(context.Background(), challenger, VouchInput{RecipientID: opponent})
	assert.ErrorIs(t, err, ErrUnavailable)

	svc := NewVouchService(nil, stubVerifier{}, nil, nil, NewModerator(nil))
	_, err = svc.Create(context.Background(), challenger, VouchInput{RecipientID: challenger, Amount: decimal.NewFromInt(5)})
	assert.True(t, IsValidation(err))

	_, err = svc.Create(context.Background(), challenger, VouchInput{RecipientID: opponent, Amount: decimal.NewFromInt(5000)})
	assert.True(t, IsValidation(err))

	_, err = svc.Create(context.Background(), challenger, VouchInput{RecipientID: opponent, Amount: decimal.NewFromInt(5), TxHash: "0x1234"})
	assert.True(t, IsValidation(err))
}

func TestVouchCreateIsThrottledPerSender(t *testing.T) {
	svc := NewVouchService(nil, stubVerifier{}, nil, nil, NewModerator(nil))
	self := VouchInput{RecipientID: voter}
	var limited bool
	for i := 0; i < 10; i++ {
		_, err := svc.Create(context.Background(), voter, self)
		if errors.Is(err, ErrRateLimited) {
			limited = true
			break
		}
		require.True(t, IsValidation(err))
	}
	assert.True(t, limited)
}

func TestSteezePurchaseUnavailableWithoutTreasury(t *testing.T) {
	svc := NewSteezeService(nil, stubVerifier{}, "")
	_, err := svc.Purchase(context.Background(), "u", PurchaseInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrUnavailable)

	svc = NewSteezeService(nil, stubVerifier{}, "0x2222222222222222222222222222222222222222")
	_, err = svc.Purchase(context.Background(), "u", PurchaseInput{Amount: decimal.NewFromInt(1), TxHash: "nope"})
	assert.True(t, IsValidation(err))
}
