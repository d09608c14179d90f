package handlers

import (
	"aura-api/middleware"
	"aura-api/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles what the route setup needs. Twitter may be nil when
// OAuth is not configured.
type Services struct {
	Auth          *services.AuthService
	Twitter       *services.TwitterClient
	Users         *services.UserService
	Aura          *services.AuraService
	Badges        *services.BadgeService
	Lessons       *services.LessonService
	Battles       *services.BattleService
	Vouches       *services.VouchService
	Steeze        *services.SteezeService
	Leaderboard   *services.LeaderboardService
	Notifications *services.NotificationService
	Web3          *services.Web3Service
	Security      *services.SecurityService

	ClientURL  string
	AdminToken string
}

// SetupRoutes mounts every API route under api.
func SetupRoutes(api fiber.Router, s *Services) {
	SetupAuthRoutes(api, s)
	SetupUserRoutes(api, s)
	SetupAuraRoutes(api, s)
	SetupLessonRoutes(api, s)
	SetupBattleRoutes(api, s)
	SetupVouchRoutes(api, s)
	SetupSteezeRoutes(api, s)
	SetupLeaderboardRoutes(api, s)
	SetupNotificationRoutes(api, s)
	SetupWeb3Routes(api, s)
	SetupAdminRoutes(api, s)
}

func userID(c *fiber.Ctx) string {
	return middleware.CurrentUserID(c)
}
