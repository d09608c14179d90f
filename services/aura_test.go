package services

import (
	"context"
	"testing"
	"time"

	"aura-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForStreak(t *testing.T) {
	tests := []struct {
		streak int
		want   string
	}{
		{0, "Novice"},
		{2, "Novice"},
		{3, "Rising"},
		{6, "Rising"},
		{7, "Radiant"},
		{14, "Luminary"},
		{29, "Luminary"},
		{30, "Legendary"},
		{365, "Legendary"},
	}
	for _, tt := range tests {
		got := LevelForStreak(models.DefaultAuraLevels, tt.streak)
		assert.Equal(t, tt.want, got.Name, "streak %d", tt.streak)
	}
}

func TestLevelForStreakFallsBackToDefaults(t *testing.T) {
	assert.Equal(t, "Radiant", LevelForStreak(nil, 8).Name)
}

func TestApplyMultiplierFloors(t *testing.T) {
	assert.Equal(t, int64(10), ApplyMultiplier(LessonBaseAura, MultiplierForStreak(1)))
	assert.Equal(t, int64(12), ApplyMultiplier(LessonBaseAura, MultiplierForStreak(3)))
	assert.Equal(t, int64(30), ApplyMultiplier(LessonBaseAura, MultiplierForStreak(30)))
	assert.Equal(t, int64(1), ApplyMultiplier(1, 1.5))
}

func TestAdvanceStreak(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	sameDay := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)
	longAgo := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := AdvanceStreak(0, nil, today)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = AdvanceStreak(4, &yesterday, today)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	got, err = AdvanceStreak(4, &longAgo, today)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = AdvanceStreak(4, &sameDay, today)
	assert.ErrorIs(t, err, ErrAlreadyCompletedToday)
	assert.Equal(t, 4, got)
}

func TestAdvanceStreakUsesUTCDays(t *testing.T) {
	// 23:30 in UTC-5 on the 9th is already the 10th in UTC.
	est := time.FixedZone("EST", -5*3600)
	last := time.Date(2026, 3, 9, 23, 30, 0, 0, est)
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := AdvanceStreak(2, &last, today)
	assert.ErrorIs(t, err, ErrAlreadyCompletedToday)
}

func TestAwardAura(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAuraService(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "aura_points"=aura_points \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "aura_points"}).
			AddRow("u-1", "alice", int64(125)))
	mock.ExpectCommit()

	user, err := svc.AwardAura(context.Background(), "u-1", 25, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(125), user.AuraPoints)
}

func TestAwardAuraUnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAuraService(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "aura_points"=aura_points \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.AwardAura(context.Background(), "missing", 25, "test")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAwardAuraRejectsNonPositive(t *testing.T) {
	svc := NewAuraService(nil, nil)
	_, err := svc.AwardAura(context.Background(), "u-1", 0, "noop")
	assert.True(t, IsValidation(err))
}
