package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// campaignMetricRepository implements the CampaignMetricRepository interface
type campaignMetricRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCampaignMetricRepository creates a new campaign metric repository instance
func NewCampaignMetricRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CampaignMetricRepository {
	return &campaignMetricRepository{
		db:     db,
		logger: logger,
	}
}

// IncrementAttempted upserts the counter row for one campaign run
func (r *campaignMetricRepository) IncrementAttempted(ctx context.Context, campaignName, extractRef string, delta int64) error {
	metric := &model.CampaignMetric{
		CampaignName: campaignName,
		ExtractRef:   extractRef,
		Attempted:    delta,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "campaign_name"}, {Name: "extract_ref"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"attempted":  gorm.Expr("campaign_metrics.attempted + EXCLUDED.attempted"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(metric).Error

	if err != nil {
		r.logger.Error("Failed to increment attempted counter",
			zap.String("campaign_name", campaignName),
			zap.String("extract_ref", extractRef),
			zap.Error(err))
		return fmt.Errorf("failed to increment attempted counter: %w", err)
	}

	return nil
}

// DeleteOlderThan removes counter rows created at or before the cutoff
func (r *campaignMetricRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	sub := r.db.Model(&model.CampaignMetric{}).
		Select("id").
		Where("created_at <= ?", cutoff).
		Limit(limit)

	res := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Delete(&model.CampaignMetric{})

	if res.Error != nil {
		r.logger.Error("Failed to delete campaign metrics",
			zap.Time("cutoff", cutoff),
			zap.Error(res.Error))
		return 0, fmt.Errorf("failed to delete campaign metrics: %w", res.Error)
	}

	return res.RowsAffected, nil
}
