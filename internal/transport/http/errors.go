package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/service"
	"github.com/plp-eems/eems-api/internal/util"
)

const (
	msgEmailNotFound    = "Email not found in our records"
	msgInvalidCode      = "Invalid or expired verification code"
	msgTooManyAttempts  = "Too many attempts. Please try again later."
	msgInvalidLogin     = "Invalid email or password"
	msgInvalidSession   = "Invalid or expired session"
	msgInvalidBody      = "Invalid request body"
	msgEmailAlreadyUsed = "Email already registered"
)

// writeServiceError maps service sentinels to status codes. Anything unclassified is logged in
// full and answered with fallback only.
func writeServiceError(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	var validation *service.ValidationError
	var retry *service.RetryAfterError

	switch {
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, util.Error(validation.Message))
	case errors.Is(err, service.ErrAccountNotFound):
		return c.JSON(http.StatusNotFound, util.Error(msgEmailNotFound))
	case errors.Is(err, service.ErrInvalidOrExpired):
		return c.JSON(http.StatusBadRequest, util.Error(msgInvalidCode))
	case errors.As(err, &retry):
		c.Response().Header().Set("Retry-After", retryAfterSeconds(retry.RetryAfter))
		return c.JSON(http.StatusTooManyRequests, util.Error(msgTooManyAttempts))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error(msgInvalidLogin))
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, util.Error(msgInvalidSession))
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, util.Error(msgEmailAlreadyUsed))
	default:
		logger.Error(fallback,
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, util.Error(fallback))
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
