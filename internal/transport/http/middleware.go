package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/domain"
	"github.com/plp-eems/eems-api/internal/repository/ports"
	"github.com/plp-eems/eems-api/internal/service"
	"github.com/plp-eems/eems-api/internal/util"
)

const (
	contextAccountKey = "auth.account"
	contextTokenKey   = "auth.token"
)

func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
			}
			token := strings.TrimSpace(parts[1])
			account, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error(msgInvalidSession))
			}
			c.Set(contextAccountKey, account)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

func CurrentAccount(c echo.Context) (*domain.Account, bool) {
	account, ok := c.Get(contextAccountKey).(*domain.Account)
	return account, ok && account != nil
}

// RateLimit throttles requests per client IP. Throttle failures let the request through.
func RateLimit(throttle ports.Throttle, scope string, logger *zap.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if throttle == nil {
			return next
		}
		return func(c echo.Context) error {
			key := scope + ":ip:" + c.RealIP()
			allowed, retryAfter, err := throttle.Hit(c.Request().Context(), key)
			if err != nil {
				logger.Warn("rate limit unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			if !allowed {
				c.Response().Header().Set("Retry-After", retryAfterSeconds(retryAfter))
				return c.JSON(http.StatusTooManyRequests, util.Error(msgTooManyAttempts))
			}
			return next(c)
		}
	}
}
