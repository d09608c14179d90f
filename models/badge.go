package models

import (
	"time"
)

// BadgeType: static config seeded at startup
type BadgeType struct {
	ID          string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code        string           `gorm:"uniqueIndex;not null" json:"code"` // e.g., "FIRST_LESSON"
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	IconURL     string           `gorm:"type:text" json:"icon_url"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	Threshold   map[string]int64 `gorm:"serializer:json;type:jsonb" json:"threshold"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance
type UserBadge struct {
	ID          string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeTypeID string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"badge_type_id"`
	AwardedAt   time.Time  `gorm:"autoCreateTime" json:"awarded_at"`
	BadgeType   *BadgeType `gorm:"foreignKey:BadgeTypeID" json:"badge,omitempty"`
}

// BadgeTriggers are keyed by Code; thresholds name User counters.
var BadgeTriggers = []BadgeType{
	{
		Code:        "FIRST_LESSON",
		Name:        "First Steps",
		Description: "Completed your first lesson",
		Rarity:      "common",
		Threshold:   map[string]int64{"lessons_completed": 1},
	},
	{
		Code:        "STREAK_7",
		Name:        "On Fire",
		Description: "Kept a 7 day lesson streak",
		Rarity:      "rare",
		Threshold:   map[string]int64{"current_streak": 7},
	},
	{
		Code:        "STREAK_30",
		Name:        "Unbreakable",
		Description: "Kept a 30 day lesson streak",
		Rarity:      "legendary",
		Threshold:   map[string]int64{"current_streak": 30},
	},
	{
		Code:        "FIRST_WIN",
		Name:        "First Blood",
		Description: "Won your first battle",
		Rarity:      "common",
		Threshold:   map[string]int64{"battles_won": 1},
	},
	{
		Code:        "VOUCHED",
		Name:        "Vouched For",
		Description: "Received your first vouch",
		Rarity:      "rare",
		Threshold:   map[string]int64{"vouches_received": 1},
	},
	{
		Code:        "AURA_1000",
		Name:        "Glowing",
		Description: "Reached 1000 aura points",
		Rarity:      "epic",
		Threshold:   map[string]int64{"aura_points": 1000},
	},
}
