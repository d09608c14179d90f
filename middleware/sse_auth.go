// middleware/sse_auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SSEAuth authenticates EventSource requests, which cannot set headers, from
// the `token` query parameter. A bearer header is still honoured.
//
// Usage:
//
//	api.Get("/notifications/stream", middleware.SSEAuth(auth), notifications.StreamNotificationsSSE)
func SSEAuth(sessions SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			token = BearerToken(c)
		}
		return authenticate(c, sessions, token)
	}
}
