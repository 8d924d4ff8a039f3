package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/service"
	"github.com/plp-eems/eems-api/internal/util"
)

func RegisterTime(e *echo.Echo, clock *service.TimeService, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.GET("/api/time", func(c echo.Context) error {
		now, err := clock.ServerTime(c.Request().Context())
		if err != nil {
			return writeServiceError(c, logger, err, "Failed to fetch server time")
		}
		return c.JSON(http.StatusOK, util.Envelope{
			"success":    true,
			"serverTime": now.UTC().Format(time.RFC3339),
		})
	})
}
