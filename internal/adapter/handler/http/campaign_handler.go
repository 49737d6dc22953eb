package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CampaignHandler handles campaign extract HTTP requests
type CampaignHandler struct {
	logger *zap.Logger
	engine *usecase.Engine
}

// NewCampaignHandler creates a new campaign handler instance
func NewCampaignHandler(logger *zap.Logger, engine *usecase.Engine) *CampaignHandler {
	return &CampaignHandler{
		logger: logger,
		engine: engine,
	}
}

// Extract handles POST /api/v1/campaigns/extract. The selection is
// streamed straight to the response as CSV; the extract reference is
// carried on every row.
func (h *CampaignHandler) Extract(c echo.Context) error {
	campaignName := c.QueryParam("campaign_name")

	filename := fmt.Sprintf("extract_%s.csv", time.Now().UTC().Format("20060102_150405"))
	if campaignName != "" {
		filename = fmt.Sprintf("extract_%s_%s.csv", campaignName, time.Now().UTC().Format("20060102_150405"))
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write(entity.ExtractCSVHeader); err != nil {
		h.logger.Error("Failed to write extract header", zap.Error(err))
		return err
	}

	rows, extractRef, err := h.engine.GenerateCampaignExtract(c.Request().Context(), campaignName, func(row entity.ExportRow) error {
		return w.Write(row.CSVRecord())
	})
	if err != nil {
		// Headers are already committed; the truncated file is the signal.
		h.logger.Error("Campaign extract aborted mid-stream",
			zap.String("campaign_name", campaignName),
			zap.Error(err))
		return err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.Error("Failed to flush extract", zap.Error(err))
		return err
	}

	h.logger.Info("Campaign extract served",
		zap.String("extract_ref", extractRef),
		zap.Int64("rows", rows))

	return nil
}
