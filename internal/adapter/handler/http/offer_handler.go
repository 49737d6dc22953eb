package http

import (
	"net/http"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OfferHandler handles offer ingestion HTTP requests
type OfferHandler struct {
	logger *zap.Logger
	engine *usecase.Engine
}

// NewOfferHandler creates a new offer handler instance
func NewOfferHandler(logger *zap.Logger, engine *usecase.Engine) *OfferHandler {
	return &OfferHandler{
		logger: logger,
		engine: engine,
	}
}

type ingestOfferRequest struct {
	SourceSystem string                  `json:"source_system"`
	DataType     string                  `json:"data_type"`
	Record       entity.IngestionPayload `json:"record"`
}

// IngestOffer handles POST /api/v1/ingest/offers
func (h *OfferHandler) IngestOffer(c echo.Context) error {
	var req ingestOfferRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Warn("Failed to bind ingestion request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	result, err := h.engine.IngestOffer(c.Request().Context(), req.SourceSystem, req.DataType, &req.Record)
	if err != nil {
		return respondEngineError(c, h.logger, err)
	}

	status := http.StatusCreated
	if result.Action == entity.ActionRejectDuplicate {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}
