// middleware/admin.go
package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// RequireAdmin accepts either the ADMIN_TOKEN bearer or a session of a user
// flagged is_admin.
func RequireAdmin(sessions SessionStore, adminToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			log.Printf("🚫 [ADMIN] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "admin authentication required"})
		}

		if adminToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) == 1 {
			c.Locals(LocalUserID, "")
			c.Locals(LocalAdmin, true)
			log.Printf("✅ [ADMIN] Service token accepted for %s", c.Path())
			return c.Next()
		}

		userID, err := sessions.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid admin credentials"})
		}
		user, err := sessions.CurrentUser(c.UserContext(), userID)
		if err != nil || !user.IsAdmin || user.IsBanned {
			log.Printf("❌ [ADMIN] User %s denied on %s", userID, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin privileges required"})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUser, user)
		c.Locals(LocalAdmin, true)
		return c.Next()
	}
}
