package handlers

import (
	"errors"

	"aura-api/services"
	"aura-api/web3"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// respondError maps service errors to status codes. Only 5xx are logged.
func respondError(c *fiber.Ctx, err error) error {
	status, msg := classify(err)
	if status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable {
		log.WithFields(log.Fields{"method": c.Method(), "path": c.Path()}).
			Errorf("❌ Unhandled error: %v", err)
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	body := fiber.Map{"error": msg}
	if cause := err.Error(); cause != msg {
		body["cause"] = cause
	}
	var failed *services.LessonFailedError
	if errors.As(err, &failed) {
		body["score"] = failed.Score
		body["total"] = failed.Total
	}
	return c.Status(status).JSON(body)
}

func classify(err error) (int, string) {
	switch {
	case services.IsValidation(err):
		return fiber.StatusBadRequest, "validation failed"
	case errors.Is(err, web3.ErrInvalidAddress), errors.Is(err, web3.ErrInvalidTxHash):
		return fiber.StatusBadRequest, "validation failed"
	case errors.Is(err, services.ErrInsufficientBalance):
		return fiber.StatusBadRequest, "insufficient balance"
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrBanned):
		return fiber.StatusForbidden, "account is banned"
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, services.ErrDuplicateTx):
		return fiber.StatusConflict, "transaction already submitted"
	case errors.Is(err, services.ErrAlreadyCompletedToday):
		return fiber.StatusConflict, "lesson already completed today"
	case errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusConflict, "invalid battle state"
	case errors.Is(err, services.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusConflict, "conflict"
	case errors.Is(err, services.ErrLessonFailed):
		return fiber.StatusUnprocessableEntity, "lesson not passed"
	case errors.Is(err, services.ErrTxNotVerified):
		return fiber.StatusUnprocessableEntity, "transaction could not be verified"
	case errors.Is(err, services.ErrProfanity):
		return fiber.StatusUnprocessableEntity, "content not allowed"
	case errors.Is(err, services.ErrRateLimited):
		return fiber.StatusTooManyRequests, "too many attempts"
	case errors.Is(err, services.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "integration not configured"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// ErrorHandler is the app-wide fallback for errors returned by handlers
// and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return respondError(c, err)
}
