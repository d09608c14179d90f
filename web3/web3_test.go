package web3

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc  = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	txA   = "0x" + strings.Repeat("ab", 32)
)

type fakeChain struct {
	receipts map[common.Hash]*types.Receipt
	native   *big.Int
	usdcRaw  *big.Int
	lastCall ethereum.CallMsg
}

func (f *fakeChain) TransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	r, ok := f.receipts[h]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = msg
	return common.LeftPadBytes(f.usdcRaw.Bytes(), 32), nil
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.native, nil
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) { return 1234, nil }

func transferLog(token, from, to common.Address, raw int64) *types.Log {
	return &types.Log{
		Address: token,
		Topics: []common.Hash{
			TransferTopic,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: common.LeftPadBytes(big.NewInt(raw).Bytes(), 32),
	}
}

func TestParseTransfersSkipsForeignAndMalformedLogs(t *testing.T) {
	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs: []*types.Log{
			transferLog(other, alice, bob, 5_000_000),
			{Address: usdc, Topics: []common.Hash{TransferTopic}},
			transferLog(usdc, alice, bob, 2_500_000),
		},
	}

	transfers := ParseTransfers(receipt, usdc)
	require.Len(t, transfers, 1)
	assert.Equal(t, strings.ToLower(alice.Hex()), transfers[0].From)
	assert.Equal(t, strings.ToLower(bob.Hex()), transfers[0].To)
	assert.True(t, transfers[0].Amount.Equal(decimal.RequireFromString("2.5")))
}

func TestVerifyTransfer(t *testing.T) {
	chain := &fakeChain{receipts: map[common.Hash]*types.Receipt{
		common.HexToHash(txA): {
			Status: types.ReceiptStatusSuccessful,
			Logs:   []*types.Log{transferLog(usdc, alice, bob, 10_000_000)},
		},
	}}
	c := NewClient(chain, 8453, usdc)
	ctx := context.Background()

	tr, err := c.VerifyTransfer(ctx, txA, alice.Hex(), bob.Hex(), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, tr.Amount.Equal(decimal.NewFromInt(10)))

	_, err = c.VerifyTransfer(ctx, txA, alice.Hex(), bob.Hex(), decimal.NewFromInt(11))
	assert.ErrorIs(t, err, ErrTransferNotFound)

	_, err = c.VerifyTransfer(ctx, txA, bob.Hex(), alice.Hex(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrTransferNotFound)

	_, err = c.VerifyTransfer(ctx, "0x"+strings.Repeat("cd", 32), alice.Hex(), bob.Hex(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrReceiptPending)

	_, err = c.VerifyTransfer(ctx, "0x1234", alice.Hex(), bob.Hex(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidTxHash)
}

func TestFindTransferComparesRawUnits(t *testing.T) {
	from, to := strings.ToLower(alice.Hex()), strings.ToLower(bob.Hex())
	transfers := []Transfer{
		{From: from, To: to, Raw: big.NewInt(1_499_999), Amount: ToUSDC(big.NewInt(1_499_999))},
		{From: to, To: from, Raw: big.NewInt(9_000_000), Amount: ToUSDC(big.NewInt(9_000_000))},
		{From: from, To: to, Raw: big.NewInt(1_500_000), Amount: ToUSDC(big.NewInt(1_500_000)), LogIndex: 7},
	}
	got := FindTransfer(transfers, alice, bob, decimal.RequireFromString("1.5"))
	require.NotNil(t, got)
	assert.Equal(t, uint(7), got.LogIndex)

	assert.Nil(t, FindTransfer(transfers, alice, bob, decimal.RequireFromString("1.500001")))

	// hand-built transfers without raw units fall back to the decimal amount
	got = FindTransfer([]Transfer{{From: from, To: to, Amount: decimal.RequireFromString("2")}}, alice, bob, decimal.NewFromInt(2))
	require.NotNil(t, got)
	assert.Equal(t, "2000000", got.Raw.String())
}

func TestVerifyTransferReverted(t *testing.T) {
	chain := &fakeChain{receipts: map[common.Hash]*types.Receipt{
		common.HexToHash(txA): {Status: types.ReceiptStatusFailed},
	}}
	c := NewClient(chain, 8453, usdc)

	_, err := c.VerifyTransfer(context.Background(), txA, alice.Hex(), bob.Hex(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrTxReverted)
}

func TestBalanceOf(t *testing.T) {
	chain := &fakeChain{native: big.NewInt(42), usdcRaw: big.NewInt(1_230_000)}
	c := NewClient(chain, 8453, usdc)

	bal, err := c.BalanceOf(context.Background(), alice.Hex())
	require.NoError(t, err)
	assert.EqualValues(t, 1234, bal.BlockNumber)
	assert.Equal(t, int64(42), bal.NativeWei.Int64())
	assert.True(t, bal.USDC.Equal(decimal.RequireFromString("1.23")))
	require.NotNil(t, chain.lastCall.To)
	assert.Equal(t, usdc, *chain.lastCall.To)
	assert.Len(t, chain.lastCall.Data, 36)

	_, err = c.BalanceOf(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestUSDCConversions(t *testing.T) {
	assert.Equal(t, "1500000", FromUSDC(decimal.RequireFromString("1.5")).String())
	assert.Equal(t, "1", FromUSDC(decimal.RequireFromString("0.0000019")).String())
	assert.True(t, ToUSDC(big.NewInt(1)).Equal(decimal.RequireFromString("0.000001")))
}

func TestRecoverSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	msg := LoginMessage("abc123")
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	got, err := RecoverSigner(msg, hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	ok, err := VerifySignature(addr, msg, hexutil.Encode(sig))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySignature(addr, LoginMessage("other"), hexutil.Encode(sig))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = RecoverSigner(msg, "0xdeadbeef")
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("0xAbCdEf0000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", got)

	_, err = NormalizeAddress("abcdef0000000000000000000000000000000001")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
