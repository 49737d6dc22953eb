package http

import (
	"errors"
	"net/http"

	customErr "github.com/anuragind003/cdp-offer-engine/internal/domain/errors"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondEngineError maps an engine error to its HTTP representation.
// Unknown errors become an opaque 500; engine error kinds keep their
// message and kind in the body so callers can branch on them.
func respondEngineError(c echo.Context, logger *zap.Logger, err error) error {
	var engineErr *customErr.EngineError
	if !errors.As(err, &engineErr) {
		logger.Error("Unhandled engine error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}

	status := http.StatusInternalServerError
	switch engineErr.Kind {
	case customErr.KindValidation:
		status = http.StatusBadRequest
	case customErr.KindNotFound:
		status = http.StatusNotFound
	case customErr.KindDeduplicationConflict:
		status = http.StatusConflict
	}

	body := map[string]interface{}{
		"error": engineErr.Message,
		"kind":  engineErr.Kind,
	}
	if len(engineErr.Candidates) > 0 {
		body["candidates"] = engineErr.Candidates
	}

	return c.JSON(status, body)
}
