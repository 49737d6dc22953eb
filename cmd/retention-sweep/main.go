package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/anuragind003/cdp-offer-engine/internal/config"
	"github.com/anuragind003/cdp-offer-engine/internal/infrastructure/database"
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
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
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

	// Build the purger
	txManager := database.NewTxManager(db, zapLogger)
	lifecycle := usecase.NewOfferLifecycleManager(zapLogger)
	purger := usecase.NewRetentionPurger(
		txManager,
		lifecycle,
		cfg.Engine.Retention.OfferHistoryMonths,
		cfg.Engine.Retention.CDPMonths,
		cfg.Engine.Sweep.BatchSize,
		zapLogger,
	)

	// An interrupt stops the sweep between batches; committed batches stand.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	counts, err := purger.Run(ctx)
	if err != nil {
		zapLogger.Fatal("Retention sweep failed",
			zap.Int64("rows_purged", counts.Total()),
			zap.Error(err))
	}

	zapLogger.Info("Retention sweep completed",
		zap.Int64("offers_expired", counts.OffersExpired),
		zap.Int64("histories_purged", counts.HistoriesPurged),
		zap.Int64("events_purged", counts.EventsPurged),
		zap.Int64("metrics_purged", counts.MetricsPurged),
		zap.Int64("offers_purged", counts.OffersPurged),
		zap.Int64("customers_purged", counts.CustomersPurged))
}
