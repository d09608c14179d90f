package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"aura-api/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LessonBaseAura is awarded per passed lesson before the streak multiplier.
const LessonBaseAura = 10

// LevelForStreak returns the highest tier whose MinStreak <= streak.
// levels must be ordered by MinStreak ascending.
func LevelForStreak(levels []models.AuraLevel, streak int) models.AuraLevel {
	if len(levels) == 0 {
		levels = models.DefaultAuraLevels
	}
	best := levels[0]
	for _, l := range levels {
		if streak >= l.MinStreak {
			best = l
		}
	}
	return best
}

// MultiplierForStreak is LevelForStreak(...).Multiplier over the default tiers.
func MultiplierForStreak(streak int) float64 {
	return LevelForStreak(models.DefaultAuraLevels, streak).Multiplier
}

// ApplyMultiplier floors points × multiplier.
func ApplyMultiplier(points int64, multiplier float64) int64 {
	return int64(math.Floor(float64(points) * multiplier))
}

// UTCDate truncates t to midnight UTC.
func UTCDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AdvanceStreak computes the streak after a lesson completed on today.
// Completing twice on one day is an error; missing a day restarts at 1.
func AdvanceStreak(current int, last *time.Time, today time.Time) (int, error) {
	today = UTCDate(today)
	if last == nil {
		return 1, nil
	}
	lastDay := UTCDate(*last)
	switch {
	case lastDay.Equal(today):
		return current, ErrAlreadyCompletedToday
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1, nil
	default:
		return 1, nil
	}
}

type AuraService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewAuraService(db *gorm.DB, badges *BadgeService) *AuraService {
	return &AuraService{DB: db, Badges: badges}
}

// SeedLevels upserts the static tiers (idempotent).
func (s *AuraService) SeedLevels() error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "min_streak", "multiplier", "emoji"}),
	}).Create(&models.DefaultAuraLevels).Error
}

// Levels lists the tiers ordered by streak threshold.
func (s *AuraService) Levels() ([]models.AuraLevel, error) {
	var levels []models.AuraLevel
	if err := s.DB.Order("min_streak ASC").Find(&levels).Error; err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return models.DefaultAuraLevels, nil
	}
	return levels, nil
}

// AwardAura atomically adds points to a user and runs badge checks.
func (s *AuraService) AwardAura(ctx context.Context, userID string, points int64, reason string) (*models.User, error) {
	if points <= 0 {
		return nil, invalid("points", "must be positive")
	}
	var user models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := credit(tx, colAura, userID, points); err != nil {
			return err
		}
		return tx.First(&user, "id = ?", userID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("award aura: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "points": points, "total": user.AuraPoints}).
		Printf("✨ [AURA] Awarded (reason: %s)", reason)

	if s.Badges != nil {
		if err := s.Badges.AutoAwardBadges(ctx, userID); err != nil {
			log.Printf("⚠️ [AURA] Badge check failed for %s: %v", userID, err)
		}
	}
	return &user, nil
}

// ResetStaleStreaks zeroes streaks of users who skipped yesterday.
func (s *AuraService) ResetStaleStreaks(ctx context.Context, now time.Time) (int64, error) {
	yesterday := UTCDate(now).AddDate(0, 0, -1)
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("current_streak > 0 AND (last_lesson_date IS NULL OR last_lesson_date < ?)", yesterday).
		UpdateColumn("current_streak", 0)
	return res.RowsAffected, res.Error
}
