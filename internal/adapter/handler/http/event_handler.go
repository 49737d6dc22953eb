package http

import (
	"net/http"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// EventHandler handles inbound event HTTP requests
type EventHandler struct {
	logger *zap.Logger
	engine *usecase.Engine
}

// NewEventHandler creates a new event handler instance
func NewEventHandler(logger *zap.Logger, engine *usecase.Engine) *EventHandler {
	return &EventHandler{
		logger: logger,
		engine: engine,
	}
}

type recordEventRequest struct {
	CustomerID  string                 `json:"customer_id"`
	OfferID     string                 `json:"offer_id,omitempty"`
	EventType   string                 `json:"event_type"`
	EventSource string                 `json:"event_source"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// RecordEvent handles POST /api/v1/events
func (h *EventHandler) RecordEvent(c echo.Context) error {
	var req recordEventRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Failed to bind event request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid customer ID format",
		})
	}

	var offerID *uuid.UUID
	if req.OfferID != "" {
		id, err := uuid.Parse(req.OfferID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid offer ID format",
			})
		}
		offerID = &id
	}

	result, err := h.engine.RecordEvent(
		c.Request().Context(),
		customerID,
		offerID,
		model.EventType(req.EventType),
		model.EventSource(req.EventSource),
		req.Details,
	)
	if err != nil {
		return respondEngineError(c, h.logger, err)
	}

	status := http.StatusCreated
	if result.Dropped {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}
