package models

import (
	"time"
)

// User is the platform account. Balances are denormalized here and only ever
// changed through conditional atomic updates in services.
type User struct {
	ID            string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username      string  `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName   string  `json:"display_name"`
	Bio           string  `gorm:"type:text" json:"bio"`
	AvatarURL     string  `gorm:"type:text" json:"avatar_url"`
	WalletAddress *string `gorm:"uniqueIndex;type:varchar(42)" json:"wallet_address,omitempty"` // lower-case 0x hex
	TwitterID     *string `gorm:"uniqueIndex;type:varchar(32)" json:"-"`
	TwitterHandle string  `json:"twitter_handle,omitempty"`

	// Points
	AuraPoints    int64 `json:"aura_points" gorm:"not null;default:0;check:aura_points >= 0"`
	SteezeBalance int64 `json:"steeze_balance" gorm:"not null;default:0;check:steeze_balance >= 0"`

	// Streaks
	CurrentStreak  int        `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak  int        `json:"longest_streak" gorm:"not null;default:0"`
	LastLessonDate *time.Time `json:"last_lesson_date,omitempty" gorm:"type:date"`

	// Counters used by badge thresholds
	LessonsCompleted int64 `json:"lessons_completed" gorm:"not null;default:0"`
	BattlesWon       int64 `json:"battles_won" gorm:"not null;default:0"`
	VouchesReceived  int64 `json:"vouches_received" gorm:"not null;default:0"`

	IsAdmin  bool `json:"is_admin" gorm:"default:false"`
	IsBanned bool `json:"is_banned" gorm:"default:false"`

	Timestamps
}

// PublicUser is the profile shape other users see.
type PublicUser struct {
	ID            string      `json:"id"`
	Username      string      `json:"username"`
	DisplayName   string      `json:"display_name"`
	Bio           string      `json:"bio"`
	AvatarURL     string      `json:"avatar_url"`
	TwitterHandle string      `json:"twitter_handle,omitempty"`
	AuraPoints    int64       `json:"aura_points"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
	Level         AuraLevel   `json:"aura_level"`
	CreatedAt     time.Time   `json:"created_at"`
	Badges        []UserBadge `json:"badges,omitempty"`
}

// HasWallet reports whether a wallet has been linked.
func (u *User) HasWallet() bool {
	return u.WalletAddress != nil && *u.WalletAddress != ""
}

// Wallet returns the linked wallet or "".
func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}
