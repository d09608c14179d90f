package handlers

import (
	"aura-api/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	// EventSource cannot send headers, so the stream authenticates from ?token=.
	api.Get("/notifications/stream", middleware.SSEAuth(s.Auth), s.Notifications.StreamNotificationsSSE)

	api.Get("/notifications", requireAuth, s.Notifications.GetUserNotifications)
	api.Get("/notifications/counts", requireAuth, s.Notifications.GetCounts)
	api.Post("/notifications/viewed", requireAuth, s.Notifications.MarkAllAsViewed)
	api.Patch("/notifications/:id/viewed", requireAuth, s.Notifications.MarkAsViewed)
}
