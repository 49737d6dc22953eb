package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anuragind003/cdp-offer-engine/internal/config"
	"github.com/anuragind003/cdp-offer-engine/internal/infrastructure/cache"
	"github.com/anuragind003/cdp-offer-engine/internal/infrastructure/database"
	httpServer "github.com/anuragind003/cdp-offer-engine/internal/infrastructure/http"
	"github.com/anuragind003/cdp-offer-engine/internal/logger"
	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Development: cfg.Service.Environment != "production",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize redis connection
	redisClient, err := cache.NewRedisClient(&cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)
	txManager := database.NewTxManager(db, zapLogger)
	cacheRepo := cache.NewRedisRepository(redisClient, zapLogger)

	// Initialize engine
	resolver := usecase.NewIdentityResolver(zapLogger)
	classifier := usecase.NewOfferClassifier(cfg.Engine.ProductPriority, zapLogger)
	lifecycle := usecase.NewOfferLifecycleManager(zapLogger)
	recorder := usecase.NewEventRecorder(repos, txManager, cacheRepo, lifecycle, cfg.Redis.DNDCacheTTL, zapLogger)
	purger := usecase.NewRetentionPurger(txManager, lifecycle, cfg.Engine.Retention.OfferHistoryMonths, cfg.Engine.Retention.CDPMonths, cfg.Engine.Sweep.BatchSize, zapLogger)
	exporter := usecase.NewCampaignExportSelector(repos, classifier, cfg.Engine.Export.PageSize, cfg.Engine.Retention.OfferHistoryMonths, zapLogger)
	engine := usecase.NewEngine(
		repos,
		txManager,
		cacheRepo,
		resolver,
		classifier,
		lifecycle,
		recorder,
		purger,
		exporter,
		cfg.Engine.LockStripes,
		cfg.Engine.ProfileRecentEvents,
		zapLogger,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize server
	httpSrv := httpServer.NewServer(cfg, zapLogger, engine)

	// Start server
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}
