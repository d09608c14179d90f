package models

import (
	"time"
)

// WalletBalance is the last observed on-chain balance of a linked wallet.
// Table name: wallet_balances
type WalletBalance struct {
	ID            string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Address       string    `gorm:"type:varchar(42);not null;uniqueIndex" json:"address"` // Primary lookup key
	ChainID       int64     `gorm:"not null" json:"chain_id"`
	NativeWei     string    `gorm:"type:numeric(78,0);not null;default:0" json:"native_wei"`
	USDCBalance   string    `gorm:"type:numeric(20,6);not null;default:0" json:"usdc_balance"`
	BlockNumber   uint64    `gorm:"not null;default:0" json:"block_number"`
	LastCheckedAt time.Time `gorm:"not null" json:"last_checked_at"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}
