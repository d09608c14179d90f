package models

// AuraLevel is a static tier: reaching MinStreak consecutive lesson days
// unlocks Multiplier for lesson awards, vouches and battle votes.
type AuraLevel struct {
	Level      int     `gorm:"primaryKey;autoIncrement:false" json:"level"`
	Name       string  `gorm:"not null" json:"name"`
	MinStreak  int     `gorm:"not null;uniqueIndex" json:"min_streak"`
	Multiplier float64 `gorm:"not null" json:"multiplier"`
	Emoji      string  `gorm:"size:10" json:"emoji"`
}

// DefaultAuraLevels are seeded at startup, ordered by MinStreak.
var DefaultAuraLevels = []AuraLevel{
	{Level: 1, Name: "Novice", MinStreak: 0, Multiplier: 1.0, Emoji: "🌱"},
	{Level: 2, Name: "Rising", MinStreak: 3, Multiplier: 1.25, Emoji: "✨"},
	{Level: 3, Name: "Radiant", MinStreak: 7, Multiplier: 1.5, Emoji: "🔥"},
	{Level: 4, Name: "Luminary", MinStreak: 14, Multiplier: 2.0, Emoji: "💫"},
	{Level: 5, Name: "Legendary", MinStreak: 30, Multiplier: 3.0, Emoji: "👑"},
}
