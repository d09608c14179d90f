package handlers

import (
	"context"

	"aura-api/middleware"
	"aura-api/models"
	"aura-api/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBattleRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	api.Get("/battles", func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 20, 100)
		if err != nil {
			return respondError(c, err)
		}
		battles, err := s.Battles.List(c.UserContext(), c.Query("status"), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(battles)
	})

	api.Get("/battles/:id", func(c *fiber.Ctx) error {
		battle, err := s.Battles.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(battle)
	})

	api.Post("/battles", requireAuth, func(c *fiber.Ctx) error {
		var body services.ChallengeInput
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		battle, err := s.Battles.Challenge(c.UserContext(), userID(c), body)
		if err != nil {
			return respondError(c, err)
		}
		s.Leaderboard.Invalidate()
		return c.Status(fiber.StatusCreated).JSON(battle)
	})

	transition := func(fn func(ctx context.Context, battleID, userID string) (*models.Battle, error)) fiber.Handler {
		return func(c *fiber.Ctx) error {
			battle, err := fn(c.UserContext(), c.Params("id"), userID(c))
			if err != nil {
				return respondError(c, err)
			}
			s.Leaderboard.Invalidate()
			return c.JSON(battle)
		}
	}
	api.Post("/battles/:id/accept", requireAuth, transition(s.Battles.Accept))
	api.Post("/battles/:id/reject", requireAuth, transition(s.Battles.Reject))
	api.Post("/battles/:id/cancel", requireAuth, transition(s.Battles.Cancel))

	api.Post("/battles/:id/votes", requireAuth, func(c *fiber.Ctx) error {
		var body services.VoteInput
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		vote, err := s.Battles.Vote(c.UserContext(), c.Params("id"), userID(c), body)
		if err != nil {
			return respondError(c, err)
		}
		s.Leaderboard.Invalidate()
		return c.Status(fiber.StatusCreated).JSON(vote)
	})
}
