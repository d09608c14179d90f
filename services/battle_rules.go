package services

import (
	"fmt"
	"strings"
	"time"

	"aura-api/models"
)

const (
	ChallengeTTL       = 24 * time.Hour
	DefaultVotingHours = 24
	MinVotingHours     = 1
	MaxVotingHours     = 72
)

// BattleAction names a lifecycle move.
type BattleAction string

const (
	ActionAccept  BattleAction = "accept"
	ActionReject  BattleAction = "reject"
	ActionCancel  BattleAction = "cancel"
	ActionExpire  BattleAction = "expire"
	ActionResolve BattleAction = "resolve"
)

type battleActor int

const (
	actorOpponent battleActor = iota
	actorChallenger
	actorSystem
)

type battleTransition struct {
	From  models.BattleStatus
	To    models.BattleStatus
	Actor battleActor
}

// battleTransitions is the complete lifecycle. Anything not listed is illegal.
var battleTransitions = map[BattleAction]battleTransition{
	ActionAccept:  {From: models.BattleStatusPending, To: models.BattleStatusActive, Actor: actorOpponent},
	ActionReject:  {From: models.BattleStatusPending, To: models.BattleStatusCancelled, Actor: actorOpponent},
	ActionCancel:  {From: models.BattleStatusPending, To: models.BattleStatusCancelled, Actor: actorChallenger},
	ActionExpire:  {From: models.BattleStatusPending, To: models.BattleStatusCancelled, Actor: actorSystem},
	ActionResolve: {From: models.BattleStatusActive, To: models.BattleStatusCompleted, Actor: actorSystem},
}

// CheckTransition validates action on b by actorID (empty for the system)
// and returns the target status.
func CheckTransition(b *models.Battle, action BattleAction, actorID string) (models.BattleStatus, error) {
	t, ok := battleTransitions[action]
	if !ok {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}
	switch t.Actor {
	case actorOpponent:
		if actorID != b.OpponentID {
			return "", fmt.Errorf("%w: only the opponent can %s", ErrForbidden, action)
		}
	case actorChallenger:
		if actorID != b.ChallengerID {
			return "", fmt.Errorf("%w: only the challenger can %s", ErrForbidden, action)
		}
	}
	if b.Status != t.From {
		return "", fmt.Errorf("%w: cannot %s a %s battle", ErrInvalidTransition, action, b.Status)
	}
	return t.To, nil
}

// ChallengeInput is the body of POST /battles.
type ChallengeInput struct {
	OpponentID  string `json:"opponent_id" validate:"required,uuid"`
	Stake       int64  `json:"stake" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,min=3,max=120"`
	VotingHours int    `json:"voting_hours" validate:"omitempty,min=1,max=72"`
}

// ValidateChallenge checks the request against the challenger's balance.
func ValidateChallenge(challengerID string, in *ChallengeInput, balance int64) error {
	if in.OpponentID == challengerID {
		return invalid("opponent_id", "cannot challenge yourself")
	}
	if in.Stake <= 0 {
		return invalid("stake", "must be positive")
	}
	if in.Stake > balance {
		return fmt.Errorf("%w: stake %d exceeds aura balance %d", ErrInsufficientBalance, in.Stake, balance)
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "required")
	}
	if in.VotingHours == 0 {
		in.VotingHours = DefaultVotingHours
	}
	if in.VotingHours < MinVotingHours || in.VotingHours > MaxVotingHours {
		return invalid("voting_hours", fmt.Sprintf("must be between %d and %d", MinVotingHours, MaxVotingHours))
	}
	return nil
}

// VoteInput is the body of POST /battles/:id/votes.
type VoteInput struct {
	TargetID string `json:"target_id" validate:"required,uuid"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
}

// ValidateVote checks a vote against the battle state and the voter's steeze.
func ValidateVote(b *models.Battle, voterID string, in VoteInput, steeze int64, now time.Time) error {
	if b.Status != models.BattleStatusActive {
		return fmt.Errorf("%w: battle is %s", ErrInvalidTransition, b.Status)
	}
	if b.VotingEndsAt != nil && !now.Before(*b.VotingEndsAt) {
		return fmt.Errorf("%w: voting has closed", ErrInvalidTransition)
	}
	if b.IsParticipant(voterID) {
		return fmt.Errorf("%w: participants cannot vote", ErrForbidden)
	}
	if !b.IsParticipant(in.TargetID) {
		return invalid("target_id", "must be the challenger or the opponent")
	}
	if in.Amount <= 0 {
		return invalid("amount", "must be positive")
	}
	if in.Amount > steeze {
		return fmt.Errorf("%w: vote %d exceeds steeze balance %d", ErrInsufficientBalance, in.Amount, steeze)
	}
	return nil
}

// VoteWeight is floor(amount × multiplier).
func VoteWeight(amount int64, multiplier float64) int64 {
	return ApplyMultiplier(amount, multiplier)
}

// Outcome of a resolved battle.
type Outcome struct {
	Tie          bool
	WinnerID     string
	LoserID      string
	WinnerAura   int64 // both stakes
	WinnerSteeze int64 // the vote pool
}

// DecideOutcome compares weighted tallies. Equal tallies are a tie.
func DecideOutcome(b *models.Battle) Outcome {
	switch {
	case b.ChallengerVotes > b.OpponentVotes:
		return Outcome{WinnerID: b.ChallengerID, LoserID: b.OpponentID, WinnerAura: 2 * b.Stake, WinnerSteeze: b.VotePool}
	case b.OpponentVotes > b.ChallengerVotes:
		return Outcome{WinnerID: b.OpponentID, LoserID: b.ChallengerID, WinnerAura: 2 * b.Stake, WinnerSteeze: b.VotePool}
	default:
		return Outcome{Tie: true}
	}
}
