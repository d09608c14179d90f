package models

import (
	"time"
)

// BattleStatus is the lifecycle state of a battle.
type BattleStatus string

const (
	BattleStatusPending   BattleStatus = "pending"
	BattleStatusActive    BattleStatus = "active"
	BattleStatusCompleted BattleStatus = "completed"
	BattleStatusCancelled BattleStatus = "cancelled"
)

const (
	CancelReasonRejected  = "rejected"
	CancelReasonWithdrawn = "withdrawn"
	CancelReasonExpired   = "expired"
)

// Battle is a two-party staked challenge resolved by community votes.
type Battle struct {
	ID           string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChallengerID string       `gorm:"type:uuid;index;not null" json:"challenger_id"`
	OpponentID   string       `gorm:"type:uuid;index;not null" json:"opponent_id"`
	Title        string       `gorm:"not null" json:"title"`
	Stake        int64        `gorm:"not null;check:stake > 0" json:"stake"`
	Status       BattleStatus `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`

	ChallengerVotes int64 `gorm:"not null;default:0" json:"challenger_votes"`
	OpponentVotes   int64 `gorm:"not null;default:0" json:"opponent_votes"`
	VotePool        int64 `gorm:"not null;default:0" json:"vote_pool"`
	VotingHours     int   `gorm:"not null;default:24" json:"voting_hours"`

	WinnerID     *string    `gorm:"type:uuid" json:"winner_id,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
	ExpiresAt    time.Time  `gorm:"index" json:"expires_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	VotingEndsAt *time.Time `gorm:"index" json:"voting_ends_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Challenger *User        `gorm:"foreignKey:ChallengerID" json:"challenger,omitempty"`
	Opponent   *User        `gorm:"foreignKey:OpponentID" json:"opponent,omitempty"`
	Votes      []BattleVote `gorm:"foreignKey:BattleID" json:"votes,omitempty"`

	Timestamps
}

// IsParticipant reports whether userID is the challenger or the opponent.
func (b *Battle) IsParticipant(userID string) bool {
	return userID == b.ChallengerID || userID == b.OpponentID
}

// BattleVote is a steeze-backed vote for one side of an active battle.
type BattleVote struct {
	ID         string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BattleID   string  `gorm:"type:uuid;not null;uniqueIndex:idx_vote_battle_voter" json:"battle_id"`
	VoterID    string  `gorm:"type:uuid;not null;uniqueIndex:idx_vote_battle_voter" json:"voter_id"`
	TargetID   string  `gorm:"type:uuid;not null" json:"target_id"`
	Amount     int64   `gorm:"not null;check:amount > 0" json:"amount"`
	Multiplier float64 `gorm:"not null" json:"multiplier"`
	Weighted   int64   `gorm:"not null" json:"weighted"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
