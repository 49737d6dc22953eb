package http

import (
	"net/http"

	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandler handles internal maintenance HTTP requests
type AdminHandler struct {
	logger *zap.Logger
	engine *usecase.Engine
}

// NewAdminHandler creates a new admin handler instance
func NewAdminHandler(logger *zap.Logger, engine *usecase.Engine) *AdminHandler {
	return &AdminHandler{
		logger: logger,
		engine: engine,
	}
}

// TriggerRetentionSweep handles POST /api/v1/internal/retention/sweep
func (h *AdminHandler) TriggerRetentionSweep(c echo.Context) error {
	counts, err := h.engine.RunRetentionSweep(c.Request().Context())
	if err != nil {
		// Committed batches stand even when a later step failed, so the
		// partial counts ride along with the error.
		h.logger.Error("Retention sweep failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":  "retention sweep failed",
			"counts": counts,
		})
	}

	return c.JSON(http.StatusOK, counts)
}
