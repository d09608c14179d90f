// services/notification_service.go
package services

import (
	"errors"
	"strconv"
	"strings"

	"aura-api/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// Notify stores an in-app notification. Failures are logged, never returned:
// a lost notification must not roll back the action that caused it.
func (s *NotificationService) Notify(db *gorm.DB, userID string, kind models.NotificationKind, title, body, emoji, refID string) {
	if db == nil {
		db = s.DB
	}
	n := &models.Notification{
		ID:     uuid.NewString(),
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		Emoji:  emoji,
		RefID:  refID,
	}
	if err := db.Create(n).Error; err != nil {
		log.Printf("⚠️ [NOTIFY] Failed to store %s for %s: %v", kind, userID, err)
	}
}

// GetUserNotifications lists the authenticated user's notifications.
func (s *NotificationService) GetUserNotifications(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	query := s.DB.Where("user_id = ?", userID)
	switch strings.ToLower(c.Query("viewed")) {
	case "true":
		query = query.Where("viewed = ?", true)
	case "false":
		query = query.Where("viewed = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		log.Printf("DB Error fetching notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	return c.JSON(notifications)
}

// GetCounts returns total and unviewed counts, cheap enough to poll.
func (s *NotificationService) GetCounts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var totalCount int64
	if err := s.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&totalCount).Error; err != nil {
		log.Printf("DB Error counting notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting notifications"})
	}

	var unviewedCount int64
	if err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND viewed = ?", userID, false).
		Count(&unviewedCount).Error; err != nil {
		log.Printf("DB Error counting unviewed notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting unviewed notifications"})
	}

	return c.JSON(fiber.Map{
		"total_count":    totalCount,
		"unviewed_count": unviewedCount,
	})
}

// MarkAsViewed marks a single notification as viewed (idempotent).
func (s *NotificationService) MarkAsViewed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")

	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	var n models.Notification
	if err := s.DB.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		log.Printf("DB error fetching notification: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if !n.Viewed {
		if err := s.DB.Model(&n).Update("viewed", true).Error; err != nil {
			log.Printf("Failed to update viewed status: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark as viewed"})
		}
	}

	return c.JSON(fiber.Map{"message": "OK", "notification_id": n.ID, "viewed": true})
}

// MarkAllAsViewed marks every unviewed notification of the user.
func (s *NotificationService) MarkAllAsViewed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND viewed = ?", userID, false).
		Update("viewed", true)
	if result.Error != nil {
		log.Printf("Bulk mark viewed failed: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{"message": "OK", "marked_count": result.RowsAffected})
}
