package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/plp-eems/eems-api/internal/util"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAccountNotFound    = errors.New("email not found")
	ErrInvalidOrExpired   = errors.New("invalid or expired verification code")
	ErrDeliveryFailed     = errors.New("reset code delivery failed")
	ErrStoreUnavailable   = errors.New("account store unavailable")
	ErrThrottled          = errors.New("too many attempts")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired session")
	ErrEmailAlreadyUsed   = errors.New("email already registered")
)

// RetryAfterError is returned when a throttle rejects a call; it matches ErrThrottled.
type RetryAfterError struct {
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrThrottled, e.RetryAfter.Round(time.Second))
}

func (e *RetryAfterError) Unwrap() error {
	return ErrThrottled
}

// ValidationError carries a caller-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// passwordPolicyError turns a util.ValidatePassword failure into the message shown to callers.
func passwordPolicyError(err error, minLen int) error {
	if errors.Is(err, util.ErrPasswordBlank) {
		return validationError("password cannot be blank")
	}
	return validationError("password must be at least %d characters long", minLen)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
