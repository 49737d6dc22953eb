package repository

import (
	"context"
	"time"
)

// CampaignMetricRepository defines storage access for per-campaign
// delivery counters.
type CampaignMetricRepository interface {
	// IncrementAttempted upserts the counter row for one campaign run and
	// adds delta to its attempted count.
	IncrementAttempted(ctx context.Context, campaignName, extractRef string, delta int64) error

	// DeleteOlderThan removes up to limit counter rows created at or before
	// the cutoff. Returns rows deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
