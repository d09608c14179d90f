package models

import (
	"time"
)

// NotificationKind says what happened.
type NotificationKind string

const (
	NotificationBattleChallenge NotificationKind = "battle_challenge"
	NotificationBattleAccepted  NotificationKind = "battle_accepted"
	NotificationBattleRejected  NotificationKind = "battle_rejected"
	NotificationBattleResult    NotificationKind = "battle_result"
	NotificationVouchReceived   NotificationKind = "vouch_received"
	NotificationBadge           NotificationKind = "badge"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string           `gorm:"type:uuid;index;not null" json:"user_id"`
	Kind      NotificationKind `gorm:"type:varchar(32);not null" json:"kind"`
	Title     string           `gorm:"not null" json:"title"`
	Body      string           `gorm:"type:text" json:"body"`
	Emoji     string           `gorm:"size:10" json:"emoji"`
	RefID     string           `gorm:"type:varchar(64)" json:"ref_id,omitempty"`
	Viewed    bool             `gorm:"default:false;index" json:"viewed"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
