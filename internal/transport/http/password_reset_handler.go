package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/service"
	"github.com/plp-eems/eems-api/internal/util"
)

type PasswordResetHandler struct {
	resets *service.PasswordResetService
	logger *zap.Logger
}

// RegisterPasswordReset mounts the three reset steps under /api/forgot-password. Extra
// middleware (per-IP rate limiting) applies to the whole group.
func RegisterPasswordReset(e *echo.Echo, resets *service.PasswordResetService, logger *zap.Logger, mw ...echo.MiddlewareFunc) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &PasswordResetHandler{resets: resets, logger: logger}

	g := e.Group("/api/forgot-password", mw...)
	g.POST("/send-code", h.sendCode)
	g.POST("/verify-code", h.verifyCode)
	g.POST("/reset", h.reset)
}

func (h *PasswordResetHandler) sendCode(c echo.Context) error {
	var req SendCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgInvalidBody))
	}

	result, err := h.resets.RequestCode(c.Request().Context(), req.Email)
	if err != nil {
		return writeServiceError(c, h.logger, err, "Failed to send code. Please try again.")
	}
	return c.JSON(http.StatusOK, util.Success("Verification code sent to your email").With("email", result.Email))
}

func (h *PasswordResetHandler) verifyCode(c echo.Context) error {
	var req VerifyCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgInvalidBody))
	}

	if err := h.resets.VerifyCode(c.Request().Context(), req.Email, req.Code); err != nil {
		return writeServiceError(c, h.logger, err, "Verification failed")
	}
	return c.JSON(http.StatusOK, util.Success("Code verified successfully"))
}

func (h *PasswordResetHandler) reset(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(msgInvalidBody))
	}

	if err := h.resets.CommitNewPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return writeServiceError(c, h.logger, err, "Failed to reset password")
	}
	return c.JSON(http.StatusOK, util.Success("Password reset successful"))
}
