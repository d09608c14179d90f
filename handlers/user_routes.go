package handlers

import (
	"aura-api/middleware"
	"aura-api/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	// Static paths first so they are not captured by /users/:id.
	api.Get("/users/search", func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 20, 100)
		if err != nil {
			return respondError(c, err)
		}
		users, err := s.Users.Search(c.UserContext(), c.Query("q"), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(users)
	})

	api.Patch("/users/me", requireAuth, func(c *fiber.Ctx) error {
		var body services.ProfileUpdate
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		user, err := s.Users.UpdateProfile(c.UserContext(), userID(c), body)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(services.ToPublic(user))
	})

	api.Post("/users/me/avatar", requireAuth, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("avatar")
		if err != nil {
			return respondError(c, &services.ValidationError{Field: "avatar", Reason: "multipart file is required"})
		}
		user, err := s.Users.UploadAvatar(c.UserContext(), userID(c), fh)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(services.ToPublic(user))
	})

	api.Post("/users/me/wallet", requireAuth, func(c *fiber.Ctx) error {
		var body walletProof
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		user, err := s.Auth.LinkWallet(c.UserContext(), userID(c), body.Address, body.Signature)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(user)
	})

	api.Get("/users/me/battles", requireAuth, func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 50, 100)
		if err != nil {
			return respondError(c, err)
		}
		battles, err := s.Battles.ForUser(c.UserContext(), userID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(battles)
	})

	api.Get("/users/me/wallet/balance", requireAuth, func(c *fiber.Ctx) error {
		snap, err := s.Web3.SnapshotFor(c.UserContext(), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(snap)
	})

	api.Get("/users/:id", func(c *fiber.Ctx) error {
		profile, err := s.Users.Profile(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(profile)
	})

	api.Get("/users/:id/badges", func(c *fiber.Ctx) error {
		badges, err := s.Badges.ForUser(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(badges)
	})
}
