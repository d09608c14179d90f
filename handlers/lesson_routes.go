package handlers

import (
	"aura-api/middleware"

	"github.com/gofiber/fiber/v2"
)

type completeLessonBody struct {
	Answers []int `json:"answers" validate:"required,min=1,dive,min=0"`
}

func SetupLessonRoutes(api fiber.Router, s *Services) {
	requireAuth := middleware.RequireAuth(s.Auth)

	api.Get("/lessons/today", requireAuth, func(c *fiber.Ctx) error {
		lesson, err := s.Lessons.Today(c.UserContext(), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(lesson)
	})

	api.Get("/lessons/history", requireAuth, func(c *fiber.Ctx) error {
		page, err := queryInt(c, "page", 1)
		if err != nil {
			return respondError(c, err)
		}
		size, err := queryInt(c, "size", 20)
		if err != nil {
			return respondError(c, err)
		}
		history, err := s.Lessons.History(c.UserContext(), userID(c), page, size)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(history)
	})

	api.Post("/lessons/:id/complete", requireAuth, func(c *fiber.Ctx) error {
		var body completeLessonBody
		if err := parseBody(c, &body); err != nil {
			return respondError(c, err)
		}
		result, err := s.Lessons.Complete(c.UserContext(), userID(c), c.Params("id"), body.Answers)
		if err != nil {
			return respondError(c, err)
		}
		s.Leaderboard.Invalidate()
		return c.JSON(result)
	})
}
