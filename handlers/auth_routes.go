package handlers

import (
	"net/url"

	"aura-api/middleware"
	"aura-api/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type walletProof struct {
	Address   string `json:"address" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

func SetupAuthRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	api.Get("/auth/nonce", func(c *fiber.Ctx) error {
		nonce, message, err := s.Auth.NewNonce(c.Query("address"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"nonce": nonce, "message": message})
	})

	api.Post("/auth/wallet", func(c *fiber.Ctx) error {
		var body walletProof
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		user, token, err := s.Auth.LoginWithWallet(c.UserContext(), body.Address, body.Signature)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"token": token, "user": user})
	})

	api.Get("/auth/twitter", func(c *fiber.Ctx) error {
		if s.Twitter == nil {
			return respondError(c, services.ErrUnavailable)
		}
		// An existing session may link Twitter instead of logging in.
		linkUserID := ""
		if token := c.Query("token"); token != "" {
			id, err := s.Auth.ParseToken(token)
			if err != nil {
				return respondError(c, services.ErrUnauthorized)
			}
			linkUserID = id
		}
		return c.Redirect(s.Twitter.AuthURL(linkUserID), fiber.StatusTemporaryRedirect)
	})

	api.Get("/auth/twitter/callback", func(c *fiber.Ctx) error {
		if s.Twitter == nil {
			return respondError(c, services.ErrUnavailable)
		}
		if e := c.Query("error"); e != "" {
			return c.Redirect(s.ClientURL+"/auth/callback?error="+url.QueryEscape(e), fiber.StatusTemporaryRedirect)
		}
		profile, linkUserID, err := s.Twitter.Complete(c.UserContext(), c.Query("code"), c.Query("state"))
		if err != nil {
			log.Printf("❌ [AUTH] Twitter callback failed: %v", err)
			return respondError(c, err)
		}
		_, token, err := s.Auth.LoginWithTwitter(c.UserContext(), profile, linkUserID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Redirect(s.ClientURL+"/auth/callback?token="+url.QueryEscape(token), fiber.StatusTemporaryRedirect)
	})

	api.Get("/auth/me", requireAuth, func(c *fiber.Ctx) error {
		profile, err := s.Users.Profile(c.UserContext(), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(profile)
	})
}
