package http

import (
	"context"
	"fmt"
	"net/http"

	handlers "github.com/anuragind003/cdp-offer-engine/internal/adapter/handler/http"
	"github.com/anuragind003/cdp-offer-engine/internal/config"
	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	engine *usecase.Engine
}

func NewServer(cfg *config.Config, logger *zap.Logger, engine *usecase.Engine) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	return &Server{
		config: cfg,
		logger: logger,
		echo:   e,
		engine: engine,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize handlers
	offerHandler := handlers.NewOfferHandler(s.logger, s.engine)
	eventHandler := handlers.NewEventHandler(s.logger, s.engine)
	customerHandler := handlers.NewCustomerHandler(s.logger, s.engine)
	campaignHandler := handlers.NewCampaignHandler(s.logger, s.engine)
	adminHandler := handlers.NewAdminHandler(s.logger, s.engine)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Ingestion
	v1.POST("/ingest/offers", offerHandler.IngestOffer)

	// Events
	v1.POST("/events", eventHandler.RecordEvent)

	// Customers
	v1.GET("/customers/:id/profile", customerHandler.GetProfile)
	v1.PUT("/customers/:id/dnd", customerHandler.UpdateDND)

	// Campaign extracts
	v1.POST("/campaigns/extract", campaignHandler.Extract)

	// Internal maintenance routes
	internal := v1.Group("/internal")
	internal.POST("/retention/sweep", adminHandler.TriggerRetentionSweep)
}
