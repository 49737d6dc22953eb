package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anuragind003/cdp-offer-engine/internal/config"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	"github.com/anuragind003/cdp-offer-engine/internal/infrastructure/database"
	"github.com/anuragind003/cdp-offer-engine/internal/logger"
	"github.com/anuragind003/cdp-offer-engine/internal/usecase"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

func main() {
	var campaignName string
	var outputPath string
	flag.StringVar(&campaignName, "campaign", "", "Campaign name recorded against the extract")
	flag.StringVar(&outputPath, "o", "", "Output CSV path (default stdout)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger. Output goes to stderr so the CSV can go to stdout.
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stderr",
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

	// Build the selector
	repos := database.NewRepositories(db, zapLogger)
	classifier := usecase.NewOfferClassifier(cfg.Engine.ProductPriority, zapLogger)
	selector := usecase.NewCampaignExportSelector(
		repos,
		classifier,
		cfg.Engine.Export.PageSize,
		cfg.Engine.Retention.OfferHistoryMonths,
		zapLogger,
	)

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			zapLogger.Fatal("Failed to create output file",
				zap.String("path", outputPath),
				zap.Error(err))
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractRef, err := gonanoid.New(12)
	if err != nil {
		zapLogger.Fatal("Failed to generate extract ref", zap.Error(err))
	}

	w := csv.NewWriter(out)
	if err := w.Write(entity.ExtractCSVHeader); err != nil {
		zapLogger.Fatal("Failed to write extract header", zap.Error(err))
	}

	rows, err := selector.Stream(ctx, extractRef, func(row entity.ExportRow) error {
		return w.Write(row.CSVRecord())
	})
	if err != nil {
		zapLogger.Fatal("Campaign extract failed",
			zap.String("extract_ref", extractRef),
			zap.Int64("rows_written", rows),
			zap.Error(err))
	}

	w.Flush()
	if err := w.Error(); err != nil {
		zapLogger.Fatal("Failed to flush extract", zap.Error(err))
	}

	if campaignName != "" && rows > 0 {
		if err := repos.CampaignMetric.IncrementAttempted(ctx, campaignName, extractRef, rows); err != nil {
			zapLogger.Error("Failed to record attempted counter",
				zap.String("campaign_name", campaignName),
				zap.Error(err))
		}
	}

	zapLogger.Info("Campaign extract completed",
		zap.String("extract_ref", extractRef),
		zap.Int64("rows", rows))
}
