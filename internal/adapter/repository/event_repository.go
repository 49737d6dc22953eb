package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB, logger *zap.Logger) domainRepo.EventRepository {
	return &eventRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new event row
func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).Create(event).Error
	if err != nil {
		r.logger.Error("Failed to create event",
			zap.String("event_id", event.ID.String()),
			zap.String("customer_id", event.CustomerID.String()),
			zap.String("event_type", string(event.EventType)),
			zap.Error(err))
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// RecentByCustomer lists the customer's most recent events
func (r *eventRepository) RecentByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]model.Event, error) {
	var events []model.Event

	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&events).Error

	if err != nil {
		r.logger.Error("Failed to list recent events",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}

	return events, nil
}

// DeleteOlderThan removes events that occurred at or before the cutoff
func (r *eventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	sub := r.db.Model(&model.Event{}).
		Select("id").
		Where("occurred_at <= ?", cutoff).
		Limit(limit)

	res := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Delete(&model.Event{})

	if res.Error != nil {
		r.logger.Error("Failed to delete events",
			zap.Time("cutoff", cutoff),
			zap.Error(res.Error))
		return 0, fmt.Errorf("failed to delete events: %w", res.Error)
	}

	return res.RowsAffected, nil
}
