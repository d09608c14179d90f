package handlers

import (
	"aura-api/middleware"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type grantAuraBody struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Points int64  `json:"points" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,max=200"`
}

type banBody struct {
	Banned *bool `json:"banned"`
}

func SetupAdminRoutes(api fiber.Router, s *Services) {
	requireAdmin := middleware.RequireAdmin(s.Auth, s.AdminToken)

	api.Get("/admin/security-events", requireAdmin, func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 100, 500)
		if err != nil {
			return respondError(c, err)
		}
		events, err := s.Security.Recent(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(events)
	})

	api.Post("/admin/aura/grant", requireAdmin, func(c *fiber.Ctx) error {
		var body grantAuraBody
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		user, err := s.Aura.AwardAura(c.UserContext(), body.UserID, body.Points, body.Reason)
		if err != nil {
			return respondError(c, err)
		}
		log.Printf("🛠️ [ADMIN] Granted %d aura to %s (%s)", body.Points, body.UserID, body.Reason)
		s.Leaderboard.Invalidate()
		return c.JSON(user)
	})

	api.Post("/admin/users/:id/ban", requireAdmin, func(c *fiber.Ctx) error {
		body := banBody{}
		if len(c.Body()) > 0 {
			if err := parseBody(c, &body); err != nil {
				return respondError(c, err)
			}
		}
		banned := body.Banned == nil || *body.Banned
		user, err := s.Users.SetBanned(c.UserContext(), c.Params("id"), banned)
		if err != nil {
			return respondError(c, err)
		}
		s.Leaderboard.Invalidate()
		return c.JSON(user)
	})

	api.Post("/admin/battles/:id/resolve", requireAdmin, func(c *fiber.Ctx) error {
		battle, err := s.Battles.Resolve(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		s.Leaderboard.Invalidate()
		return c.JSON(battle)
	})
}
