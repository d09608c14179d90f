package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks on-chain verification of a stablecoin payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Vouch is a USDC transfer from Sender to Recipient converted into aura for
// the recipient.
type Vouch struct {
	ID            string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SenderID      string          `gorm:"type:uuid;index;not null" json:"sender_id"`
	RecipientID   string          `gorm:"type:uuid;index;not null" json:"recipient_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount"`
	AuraAwarded   int64           `gorm:"not null;default:0" json:"aura_awarded"`
	Multiplier    float64         `gorm:"not null;default:1" json:"multiplier"`
	TxHash        string          `gorm:"type:varchar(66);uniqueIndex;not null" json:"tx_hash"`
	FromAddress   string          `gorm:"type:varchar(42);not null" json:"from_address"`
	ToAddress     string          `gorm:"type:varchar(42);not null" json:"to_address"`
	Status        PaymentStatus   `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Attempts      int             `gorm:"not null;default:0" json:"-"`
	Message       string          `gorm:"type:text" json:"message,omitempty"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`

	Sender    *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient *User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	Timestamps
}

// SteezePurchase is a USDC transfer to the treasury converted into steeze.
type SteezePurchase struct {
	ID            string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID        string          `gorm:"type:uuid;index;not null" json:"user_id"`
	AmountUSDC    decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"amount_usdc"`
	SteezeAwarded int64           `gorm:"not null;default:0" json:"steeze_awarded"`
	TxHash        string          `gorm:"type:varchar(66);uniqueIndex;not null" json:"tx_hash"`
	FromAddress   string          `gorm:"type:varchar(42);not null" json:"from_address"`
	ToAddress     string          `gorm:"type:varchar(42);not null" json:"to_address"`
	Status        PaymentStatus   `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	Attempts      int             `gorm:"not null;default:0" json:"-"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`

	Timestamps
}
