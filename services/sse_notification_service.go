package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aura-api/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SSEPollInterval is how often the stream checks for new rows.
var SSEPollInterval = 2 * time.Second

// StreamNotificationsSSE pushes new notifications of the authenticated user.
func (s *NotificationService) StreamNotificationsSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	done := c.Context().Done()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(SSEPollInterval)
		defer ticker.Stop()

		// Only rows created after connect are streamed.
		cursor := time.Now().UTC()
		var latest models.Notification
		if err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").First(&latest).Error; err == nil {
			if latest.CreatedAt.After(cursor) {
				cursor = latest.CreatedAt
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[SSE] init error for user %s: %v", userID, err)
		}

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				var fresh []models.Notification
				if err := s.DB.
					Where("user_id = ? AND created_at > ?", userID, cursor).
					Order("created_at ASC").
					Find(&fresh).Error; err != nil {
					log.Printf("[SSE] query error for user %s: %v", userID, err)
					continue
				}

				if len(fresh) == 0 {
					// keepalive so dead clients surface as flush errors
					w.WriteString(": ping\n\n")
				} else {
					cursor = fresh[len(fresh)-1].CreatedAt
					for _, n := range fresh {
						payload, _ := json.Marshal(n)
						fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
					}
				}

				if err := w.Flush(); err != nil {
					return
				}

			case <-done:
				return
			}
		}
	})

	return nil
}
