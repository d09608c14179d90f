package web3

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrBadSignature = errors.New("invalid signature")

// LoginMessage is the text a wallet signs to prove ownership.
func LoginMessage(nonce string) string {
	return fmt.Sprintf("Sign in to Aura\nNonce: %s", nonce)
}

// RecoverSigner returns the lower-case address that produced an EIP-191
// personal_sign signature over message.
func RecoverSigner(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", ErrBadSignature
	}
	// Wallets return v as 27/28.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return "", ErrBadSignature
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", ErrBadSignature
	}
	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// VerifySignature reports whether address signed message.
func VerifySignature(address, message, signature string) (bool, error) {
	want, err := NormalizeAddress(address)
	if err != nil {
		return false, err
	}
	got, err := RecoverSigner(message, signature)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
