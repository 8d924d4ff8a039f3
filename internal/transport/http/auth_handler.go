package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/service"
	"github.com/plp-eems/eems-api/internal/util"
)

type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &AuthHandler{auth: auth, logger: logger}

	e.POST("/api/login", h.login)
	e.GET("/api/me", h.me, RequireAuth(auth))
	e.POST("/api/logout", h.logout, RequireAuth(auth))
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgInvalidBody))
	}

	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, h.logger, err, "Server error")
	}

	return c.JSON(http.StatusOK, util.Success("Login successful").
		With("user", buildAccountResponse(result.Account)).
		With("token", result.Token).
		With("expiresAt", result.ExpiresAt.UTC().Format(time.RFC3339)))
}

func (h *AuthHandler) me(c echo.Context) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"success": true,
		"user":    buildAccountResponse(account),
	})
}

func (h *AuthHandler) logout(c echo.Context) error {
	token, _ := c.Get(contextTokenKey).(string)
	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		return writeServiceError(c, h.logger, err, "Failed to log out")
	}
	return c.JSON(http.StatusOK, util.Success("Logged out"))
}
