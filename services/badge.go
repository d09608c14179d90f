package services

import (
	"context"
	"fmt"

	"aura-api/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB       *gorm.DB
	Notifier *NotificationService
}

func NewBadgeService(db *gorm.DB, notifier *NotificationService) *BadgeService {
	return &BadgeService{DB: db, Notifier: notifier}
}

// SeedBadgeTypes upserts BadgeTriggers keyed by code.
func (s *BadgeService) SeedBadgeTypes() error {
	for _, trigger := range models.BadgeTriggers {
		bt := trigger
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "rarity", "threshold"}),
		}).Create(&bt).Error; err != nil {
			return fmt.Errorf("seed badge %s: %w", trigger.Code, err)
		}
	}
	return nil
}

// AutoAwardBadges grants every badge whose thresholds the user now meets.
// Each badge is granted at most once per user.
func (s *BadgeService) AutoAwardBadges(ctx context.Context, userID string) error {
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	var types []models.BadgeType
	if err := db.Find(&types).Error; err != nil {
		return err
	}

	for _, bt := range types {
		if !MeetsThreshold(&user, bt.Threshold) {
			continue
		}
		ub := models.UserBadge{UserID: userID, BadgeTypeID: bt.ID}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ub)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		log.Printf("🎖️ [BADGE] %s → %s", bt.Name, userID)
		if s.Notifier != nil {
			s.Notifier.Notify(db, userID, models.NotificationBadge,
				"Badge earned: "+bt.Name, bt.Description, "🎖️", bt.ID)
		}
	}
	return nil
}

// ForUser lists a user's badges with their definitions.
func (s *BadgeService) ForUser(ctx context.Context, userID string) ([]models.UserBadge, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, invalid("id", "must be a uuid")
	}
	var badges []models.UserBadge
	err := s.DB.WithContext(ctx).
		Preload("BadgeType").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&badges).Error
	return badges, err
}

// MeetsThreshold reports whether every counter in req is reached. An empty
// threshold never matches.
func MeetsThreshold(u *models.User, req map[string]int64) bool {
	if len(req) == 0 {
		return false
	}
	for key, required := range req {
		var have int64
		switch key {
		case "lessons_completed":
			have = u.LessonsCompleted
		case "current_streak":
			have = int64(u.CurrentStreak)
		case "longest_streak":
			have = int64(u.LongestStreak)
		case "battles_won":
			have = u.BattlesWon
		case "vouches_received":
			have = u.VouchesReceived
		case "aura_points":
			have = u.AuraPoints
		default:
			return false
		}
		if have < required {
			return false
		}
	}
	return true
}
