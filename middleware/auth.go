// middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"aura-api/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Locals keys set by the auth middleware.
const (
	LocalUserID = "user_id"
	LocalUser   = "user"
	LocalAdmin  = "is_admin"
)

// SessionStore resolves session tokens to users.
type SessionStore interface {
	ParseToken(token string) (string, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticate validates token and stores the user on the context.
func authenticate(c *fiber.Ctx, sessions SessionStore, token string) error {
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	userID, err := sessions.ParseToken(token)
	if err != nil {
		log.Printf("🚫 [AUTH] Invalid token on %s: %v", c.Path(), err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired session"})
	}
	user, err := sessions.CurrentUser(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session user not found"})
	}
	if user.IsBanned {
		log.Printf("🔨 [AUTH] Banned user %s rejected on %s", userID, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account is banned"})
	}

	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalUser, user)
	c.Locals(LocalAdmin, user.IsAdmin)
	return c.Next()
}

// RequireAuth rejects requests without a valid bearer session.
func RequireAuth(sessions SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authenticate(c, sessions, BearerToken(c))
	}
}

// OptionalAuth sets the user when a valid token is present and otherwise
// continues anonymously.
func OptionalAuth(sessions SessionStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Next()
		}
		userID, err := sessions.ParseToken(token)
		if err == nil {
			c.Locals(LocalUserID, userID)
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id or "".
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
