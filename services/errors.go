package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrBanned                = errors.New("account is banned")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInvalidTransition     = errors.New("invalid battle state transition")
	ErrAlreadyCompletedToday = errors.New("lesson already completed today")
	ErrLessonFailed          = errors.New("score below passing threshold")
	ErrDuplicateTx           = errors.New("transaction already submitted")
	ErrTxNotVerified         = errors.New("transaction could not be verified")
	ErrUnavailable           = errors.New("integration not configured")
	ErrConflict              = errors.New("conflict")
	ErrProfanity             = errors.New("content not allowed")
	ErrRateLimited           = errors.New("too many attempts")
)

// ValidationError is a 400 with a human readable reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
