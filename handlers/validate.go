package handlers

import (
	"errors"
	"strconv"
	"strings"

	"aura-api/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// parseBody decodes JSON into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &services.ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
			}
			return &services.ValidationError{Reason: "invalid fields: " + strings.Join(fields, ", ")}
		}
		return &services.ValidationError{Reason: err.Error()}
	}
	return nil
}

// queryInt reads a positive integer query parameter.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, &services.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return v, nil
}

// boundedLimit reads ?limit= capped at max.
func boundedLimit(c *fiber.Ctx, def, max int) (int, error) {
	limit, err := queryInt(c, "limit", def)
	if err != nil {
		return 0, err
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}
