package services

import (
	"testing"
	"time"

	"aura-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	challenger = "11111111-1111-1111-1111-111111111111"
	opponent   = "22222222-2222-2222-2222-222222222222"
	voter      = "33333333-3333-3333-3333-333333333333"
)

func pendingBattle() *models.Battle {
	return &models.Battle{ChallengerID: challenger, OpponentID: opponent, Stake: 50, Status: models.BattleStatusPending}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		status  models.BattleStatus
		action  BattleAction
		actor   string
		want    models.BattleStatus
		wantErr error
	}{
		{"opponent accepts", models.BattleStatusPending, ActionAccept, opponent, models.BattleStatusActive, nil},
		{"challenger cannot accept", models.BattleStatusPending, ActionAccept, challenger, "", ErrForbidden},
		{"opponent rejects", models.BattleStatusPending, ActionReject, opponent, models.BattleStatusCancelled, nil},
		{"challenger cancels", models.BattleStatusPending, ActionCancel, challenger, models.BattleStatusCancelled, nil},
		{"opponent cannot cancel", models.BattleStatusPending, ActionCancel, opponent, "", ErrForbidden},
		{"accept twice", models.BattleStatusActive, ActionAccept, opponent, "", ErrInvalidTransition},
		{"cancel active", models.BattleStatusActive, ActionCancel, challenger, "", ErrInvalidTransition},
		{"system expires", models.BattleStatusPending, ActionExpire, "", models.BattleStatusCancelled, nil},
		{"system resolves", models.BattleStatusActive, ActionResolve, "", models.BattleStatusCompleted, nil},
		{"resolve pending", models.BattleStatusPending, ActionResolve, "", "", ErrInvalidTransition},
		{"resolve completed", models.BattleStatusCompleted, ActionResolve, "", "", ErrInvalidTransition},
		{"unknown action", models.BattleStatusPending, BattleAction("explode"), opponent, "", ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pendingBattle()
			b.Status = tt.status
			got, err := CheckTransition(b, tt.action, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateChallenge(t *testing.T) {
	in := &ChallengeInput{OpponentID: opponent, Stake: 40, Title: "Who has more aura"}
	require.NoError(t, ValidateChallenge(challenger, in, 100))
	assert.Equal(t, DefaultVotingHours, in.VotingHours)

	self := &ChallengeInput{OpponentID: challenger, Stake: 10, Title: "me vs me"}
	assert.True(t, IsValidation(ValidateChallenge(challenger, self, 100)))

	broke := &ChallengeInput{OpponentID: opponent, Stake: 101, Title: "all in"}
	assert.ErrorIs(t, ValidateChallenge(challenger, broke, 100), ErrInsufficientBalance)

	zero := &ChallengeInput{OpponentID: opponent, Stake: 0, Title: "free"}
	assert.True(t, IsValidation(ValidateChallenge(challenger, zero, 100)))

	long := &ChallengeInput{OpponentID: opponent, Stake: 10, Title: "marathon", VotingHours: 73}
	assert.True(t, IsValidation(ValidateChallenge(challenger, long, 100)))
}

func TestValidateVote(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ends := now.Add(time.Hour)
	b := pendingBattle()
	b.Status = models.BattleStatusActive
	b.VotingEndsAt = &ends

	ok := VoteInput{TargetID: opponent, Amount: 5}
	require.NoError(t, ValidateVote(b, voter, ok, 10, now))

	assert.ErrorIs(t, ValidateVote(b, challenger, ok, 10, now), ErrForbidden)
	assert.ErrorIs(t, ValidateVote(b, voter, VoteInput{TargetID: opponent, Amount: 11}, 10, now), ErrInsufficientBalance)
	assert.True(t, IsValidation(ValidateVote(b, voter, VoteInput{TargetID: voter, Amount: 1}, 10, now)))
	assert.True(t, IsValidation(ValidateVote(b, voter, VoteInput{TargetID: opponent, Amount: 0}, 10, now)))
	assert.ErrorIs(t, ValidateVote(b, voter, ok, 10, ends), ErrInvalidTransition)

	b.Status = models.BattleStatusPending
	assert.ErrorIs(t, ValidateVote(b, voter, ok, 10, now), ErrInvalidTransition)
}

func TestVoteWeight(t *testing.T) {
	assert.Equal(t, int64(7), VoteWeight(5, 1.5))
	assert.Equal(t, int64(5), VoteWeight(5, 1.0))
	assert.Equal(t, int64(15), VoteWeight(5, 3.0))
}

func TestDecideOutcome(t *testing.T) {
	b := pendingBattle()
	b.Status = models.BattleStatusActive
	b.VotePool = 30

	b.ChallengerVotes, b.OpponentVotes = 12, 9
	out := DecideOutcome(b)
	assert.False(t, out.Tie)
	assert.Equal(t, challenger, out.WinnerID)
	assert.Equal(t, opponent, out.LoserID)
	assert.Equal(t, int64(100), out.WinnerAura)
	assert.Equal(t, int64(30), out.WinnerSteeze)

	b.ChallengerVotes, b.OpponentVotes = 3, 9
	assert.Equal(t, opponent, DecideOutcome(b).WinnerID)

	b.ChallengerVotes, b.OpponentVotes = 9, 9
	assert.True(t, DecideOutcome(b).Tie)

	b.ChallengerVotes, b.OpponentVotes = 0, 0
	assert.True(t, DecideOutcome(b).Tie)
}
