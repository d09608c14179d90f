// web3/client.go
package web3

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// USDCDecimals is the token precision used for every stablecoin amount.
const USDCDecimals = 6

var (
	ErrReceiptPending   = errors.New("transaction receipt not available yet")
	ErrTxReverted       = errors.New("transaction reverted")
	ErrTransferNotFound = errors.New("no matching USDC transfer in transaction")
	ErrInvalidAddress   = errors.New("invalid 0x address")
	ErrInvalidTxHash    = errors.New("invalid transaction hash")
)

// ChainReader is the subset of ethclient used here.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client verifies stablecoin transfers and reads balances for one chain.
type Client struct {
	chain   ChainReader
	ChainID int64
	USDC    common.Address
	Timeout time.Duration
}

// Dial connects to the RPC endpoint.
func Dial(ctx context.Context, rpcURL string, chainID int64, usdc string) (*Client, error) {
	if !common.IsHexAddress(usdc) {
		return nil, fmt.Errorf("USDC_ADDRESS: %w", ErrInvalidAddress)
	}
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC: %w", err)
	}
	log.Printf("⛓️  [WEB3] Connected to chain %d, USDC %s", chainID, usdc)
	return NewClient(ec, chainID, common.HexToAddress(usdc)), nil
}

// NewClient wraps an existing chain reader.
func NewClient(chain ChainReader, chainID int64, usdc common.Address) *Client {
	return &Client{chain: chain, ChainID: chainID, USDC: usdc, Timeout: 15 * time.Second}
}

// Balance is a wallet's native and USDC holdings at a block.
type Balance struct {
	Address     string          `json:"address"`
	NativeWei   *big.Int        `json:"native_wei"`
	USDC        decimal.Decimal `json:"usdc"`
	BlockNumber uint64          `json:"block_number"`
}

// BalanceOf reads native and USDC balances at the latest block.
func (c *Client) BalanceOf(ctx context.Context, address string) (*Balance, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	block, err := c.chain.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read block number: %w", err)
	}
	at := new(big.Int).SetUint64(block)

	native, err := c.chain.BalanceAt(ctx, addr, at)
	if err != nil {
		return nil, fmt.Errorf("failed to read native balance: %w", err)
	}

	out, err := c.chain.CallContract(ctx, ethereum.CallMsg{
		To:   &c.USDC,
		Data: balanceOfCallData(addr),
	}, at)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}
	raw := new(big.Int)
	if len(out) > 0 {
		raw.SetBytes(out)
	}

	return &Balance{
		Address:     strings.ToLower(addr.Hex()),
		NativeWei:   native,
		USDC:        ToUSDC(raw),
		BlockNumber: block,
	}, nil
}

// Transfers fetches the receipt of txHash and decodes its USDC transfers.
func (c *Client) Transfers(ctx context.Context, txHash string) ([]Transfer, error) {
	hash, err := ParseTxHash(txHash)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	receipt, err := c.chain.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrReceiptPending
		}
		return nil, fmt.Errorf("failed to fetch receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, ErrTxReverted
	}
	return ParseTransfers(receipt, c.USDC), nil
}

// VerifyTransfer checks that txHash moved at least minAmount USDC from one
// wallet to another. Only transfers emitted by the USDC contract count.
func (c *Client) VerifyTransfer(ctx context.Context, txHash, from, to string, minAmount decimal.Decimal) (*Transfer, error) {
	fromAddr, err := ParseAddress(from)
	if err != nil {
		return nil, err
	}
	toAddr, err := ParseAddress(to)
	if err != nil {
		return nil, err
	}

	transfers, err := c.Transfers(ctx, txHash)
	if err != nil {
		return nil, err
	}
	t := FindTransfer(transfers, fromAddr, toAddr, minAmount)
	if t == nil {
		return nil, ErrTransferNotFound
	}
	return t, nil
}

// ParseAddress validates a 0x address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

// NormalizeAddress returns the lower-case 0x form used in storage.
func NormalizeAddress(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Hex()), nil
}

// ParseTxHash validates a 32-byte 0x hash.
func ParseTxHash(s string) (common.Hash, error) {
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return common.Hash{}, ErrInvalidTxHash
	}
	if _, err := hexDecode(s[2:]); err != nil {
		return common.Hash{}, ErrInvalidTxHash
	}
	return common.HexToHash(s), nil
}

// NormalizeTxHash returns the lower-case form used as the idempotency key.
func NormalizeTxHash(s string) (string, error) {
	h, err := ParseTxHash(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return strings.ToLower(h.Hex()), nil
}

// ToUSDC converts a raw 6-decimal token amount.
func ToUSDC(raw *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -USDCDecimals)
}

// FromUSDC converts a decimal amount to raw token units, truncating extra precision.
func FromUSDC(amount decimal.Decimal) *big.Int {
	return amount.Shift(USDCDecimals).Truncate(0).BigInt()
}
