package http

import (
	"net/http"

	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CustomerHandler handles customer profile HTTP requests
type CustomerHandler struct {
	logger *zap.Logger
	engine *usecase.Engine
}

// NewCustomerHandler creates a new customer handler instance
func NewCustomerHandler(logger *zap.Logger, engine *usecase.Engine) *CustomerHandler {
	return &CustomerHandler{
		logger: logger,
		engine: engine,
	}
}

type updateDNDRequest struct {
	DND bool `json:"dnd"`
}

// GetProfile handles GET /api/v1/customers/:id/profile
func (h *CustomerHandler) GetProfile(c echo.Context) error {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid customer ID format",
		})
	}

	profile, err := h.engine.GetCustomerProfile(c.Request().Context(), customerID)
	if err != nil {
		return respondEngineError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, profile)
}

// UpdateDND handles PUT /api/v1/customers/:id/dnd
func (h *CustomerHandler) UpdateDND(c echo.Context) error {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid customer ID format",
		})
	}

	var req updateDNDRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Failed to bind DND request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	if err := h.engine.UpdateCustomerDND(c.Request().Context(), customerID, req.DND); err != nil {
		return respondEngineError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"customer_id": customerID,
		"dnd":         req.DND,
	})
}
