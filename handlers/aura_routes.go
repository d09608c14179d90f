package handlers

import (
	"github.com/gofiber/fiber/v2"
)

func SetupAuraRoutes(api fiber.Router, s *Services) {
	api.Get("/aura/levels", func(c *fiber.Ctx) error {
		levels, err := s.Aura.Levels()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(levels)
	})
}
