package handlers

import (
	"aura-api/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	api.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 25, 100)
		if err != nil {
			return respondError(c, err)
		}
		board := c.Query("board", "aura")
		entries, err := s.Leaderboard.Top(c.UserContext(), board, limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"board": board, "entries": entries})
	})

	api.Get("/leaderboard/me", requireAuth, func(c *fiber.Ctx) error {
		standing, err := s.Leaderboard.StandingOf(c.UserContext(), userID(c), c.Query("board", "aura"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(standing)
	})
}
