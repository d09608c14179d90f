package web3

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// TransferTopic is keccak256("Transfer(address,address,uint256)").
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

var balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]

// Transfer is a decoded ERC-20 Transfer log.
type Transfer struct {
	Token    string          `json:"token"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Raw      *big.Int        `json:"raw_value"`
	Amount   decimal.Decimal `json:"amount"`
	LogIndex uint            `json:"log_index"`
}

// ParseTransfers decodes every Transfer log emitted by token. Logs from
// other contracts and malformed logs are skipped.
func ParseTransfers(receipt *types.Receipt, token common.Address) []Transfer {
	var out []Transfer
	for _, l := range receipt.Logs {
		if l == nil || l.Address != token {
			continue
		}
		if len(l.Topics) != 3 || l.Topics[0] != TransferTopic || len(l.Data) != 32 {
			continue
		}
		value := new(big.Int).SetBytes(l.Data)
		out = append(out, Transfer{
			Token:    strings.ToLower(token.Hex()),
			From:     strings.ToLower(common.BytesToAddress(l.Topics[1].Bytes()).Hex()),
			To:       strings.ToLower(common.BytesToAddress(l.Topics[2].Bytes()).Hex()),
			Raw:      value,
			Amount:   ToUSDC(value),
			LogIndex: l.Index,
		})
	}
	return out
}

// FindTransfer returns the first transfer from -> to carrying at least
// minAmount. Amounts are compared in raw token units.
func FindTransfer(transfers []Transfer, from, to common.Address, minAmount decimal.Decimal) *Transfer {
	fromHex := strings.ToLower(from.Hex())
	toHex := strings.ToLower(to.Hex())
	minRaw := FromUSDC(minAmount)
	for i := range transfers {
		t := transfers[i]
		if t.Raw == nil {
			t.Raw = FromUSDC(t.Amount)
		}
		if t.From == fromHex && t.To == toHex && t.Raw.Cmp(minRaw) >= 0 {
			return &t
		}
	}
	return nil
}

func balanceOfCallData(addr common.Address) []byte {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	return append(data, common.LeftPadBytes(addr.Bytes(), 32)...)
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
