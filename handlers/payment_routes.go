package handlers

import (
	"errors"

	"aura-api/middleware"
	"aura-api/models"
	"aura-api/services"

	"github.com/gofiber/fiber/v2"
)

// paymentStatus is 201 once confirmed and 202 while the receipt is pending.
func paymentStatus(status models.PaymentStatus) int {
	if status == models.PaymentStatusConfirmed {
		return fiber.StatusCreated
	}
	return fiber.StatusAccepted
}

// respondPayment renders a submitted payment. A failed verification still
// returns the stored record so the client can show the reason.
func respondPayment(c *fiber.Ctx, record interface{}, status models.PaymentStatus, err error) error {
	if err != nil {
		if errors.Is(err, services.ErrTxNotVerified) && record != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "transaction could not be verified",
				"cause":   err.Error(),
				"payment": record,
			})
		}
		return respondError(c, err)
	}
	return c.Status(paymentStatus(status)).JSON(record)
}

func SetupVouchRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	api.Post("/vouches", requireAuth, func(c *fiber.Ctx) error {
		var body services.VouchInput
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		vouch, err := s.Vouches.Create(c.UserContext(), userID(c), body)
		if vouch == nil {
			return respondPayment(c, nil, "", err)
		}
		if err == nil {
			s.Leaderboard.Invalidate()
		}
		return respondPayment(c, vouch, vouch.Status, err)
	})

	api.Get("/vouches/received", requireAuth, func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 50, 100)
		if err != nil {
			return respondError(c, err)
		}
		vouches, err := s.Vouches.Received(c.UserContext(), userID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(vouches)
	})

	api.Get("/vouches/sent", requireAuth, func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 50, 100)
		if err != nil {
			return respondError(c, err)
		}
		vouches, err := s.Vouches.Sent(c.UserContext(), userID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(vouches)
	})
}

func SetupSteezeRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	api.Post("/steeze/purchase", requireAuth, func(c *fiber.Ctx) error {
		var body services.PurchaseInput
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		purchase, err := s.Steeze.Purchase(c.UserContext(), userID(c), body)
		if purchase == nil {
			return respondPayment(c, nil, "", err)
		}
		if err == nil {
			s.Leaderboard.Invalidate()
		}
		return respondPayment(c, purchase, purchase.Status, err)
	})

	api.Get("/steeze/history", requireAuth, func(c *fiber.Ctx) error {
		limit, err := boundedLimit(c, 50, 100)
		if err != nil {
			return respondError(c, err)
		}
		purchases, err := s.Steeze.History(c.UserContext(), userID(c), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(purchases)
	})
}
