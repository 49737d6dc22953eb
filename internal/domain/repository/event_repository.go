package repository

import (
	"context"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/google/uuid"
)

// EventRepository defines storage access for engagement and LOS events.
type EventRepository interface {
	// Create inserts a new event row.
	Create(ctx context.Context, event *model.Event) error

	// RecentByCustomer lists the customer's most recent events, newest
	// first, up to limit.
	RecentByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]model.Event, error)

	// DeleteOlderThan removes up to limit events that occurred at or before
	// the cutoff. Returns rows deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
