package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	customErr "github.com/anuragind003/cdp-offer-engine/internal/domain/errors"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// dndCacheKey builds the cache key for one customer's DND flag.
func dndCacheKey(customerID uuid.UUID) string {
	return "dnd:" + customerID.String()
}

// EventRecorder persists inbound lifecycle and campaign events. Moengage
// events against DND customers are silently dropped, the one documented
// non-error suppression in the engine. A terminal LOS event recorded
// against an offer expires that offer in the same unit of work.
type EventRecorder struct {
	repos     *domainRepo.Repositories
	txManager domainRepo.TxManager
	cache     domainRepo.CacheRepository
	lifecycle *OfferLifecycleManager
	dndTTL    time.Duration
	logger    *zap.Logger
}

// NewEventRecorder creates a new event recorder instance
func NewEventRecorder(
	repos *domainRepo.Repositories,
	txManager domainRepo.TxManager,
	cache domainRepo.CacheRepository,
	lifecycle *OfferLifecycleManager,
	dndTTL time.Duration,
	logger *zap.Logger,
) *EventRecorder {
	return &EventRecorder{
		repos:     repos,
		txManager: txManager,
		cache:     cache,
		lifecycle: lifecycle,
		dndTTL:    dndTTL,
		logger:    logger,
	}
}

// Record persists one event for a customer, optionally linked to an offer.
// Returns a dropped result for suppressed Moengage events.
func (r *EventRecorder) Record(ctx context.Context, customerID uuid.UUID, offerID *uuid.UUID, eventType model.EventType, source model.EventSource, details map[string]interface{}) (*entity.RecordEventResult, error) {
	if eventType == "" {
		return nil, customErr.NewValidationError("event type is required", nil)
	}
	switch source {
	case model.EventSourceMoengage, model.EventSourceLOS, model.EventSourceInternal:
	default:
		return nil, customErr.NewValidationError(fmt.Sprintf("unknown event source: %s", source), nil)
	}

	dnd, err := r.dndFlag(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if source == model.EventSourceMoengage && dnd {
		r.logger.Info("Event dropped, customer is DND",
			zap.String("customer_id", customerID.String()),
			zap.String("event_type", string(eventType)))
		return &entity.RecordEventResult{Dropped: true}, nil
	}

	event := &model.Event{
		ID:          uuid.New(),
		CustomerID:  customerID,
		OfferID:     offerID,
		EventType:   eventType,
		EventSource: source,
		OccurredAt:  time.Now().UTC(),
		Details:     datatypes.JSONMap(details),
	}

	err = r.txManager.Transaction(ctx, func(repos *domainRepo.Repositories) error {
		if offerID != nil {
			offer, err := repos.Offer.FindByID(ctx, *offerID)
			if err != nil {
				return err
			}
			if offer == nil {
				return customErr.NewNotFoundError("offer", *offerID)
			}
			if offer.CustomerID != customerID {
				return customErr.NewValidationError("offer does not belong to customer", nil)
			}
		}

		if err := repos.Event.Create(ctx, event); err != nil {
			return err
		}

		// LOS events carrying a loan application number start the journey
		if source == model.EventSourceLOS && offerID != nil {
			if loanApp, ok := details["loan_application_number"].(string); ok && loanApp != "" {
				if _, err := repos.Offer.AttachLoanApplication(ctx, *offerID, loanApp); err != nil {
					return err
				}
			}
		}

		if eventType.TerminalLOS() && offerID != nil {
			if _, err := r.lifecycle.Expire(ctx, repos.Offer, *offerID, ReasonJourneyTerminal); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Event recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("event_type", string(eventType)),
		zap.String("event_source", string(source)))

	return &entity.RecordEventResult{EventID: &event.ID}, nil
}

// dndFlag reads the customer's DND flag through the cache. A miss loads
// the customer row and refreshes the cache entry.
func (r *EventRecorder) dndFlag(ctx context.Context, customerID uuid.UUID) (bool, error) {
	key := dndCacheKey(customerID)

	if cached, err := r.cache.Get(ctx, key); err == nil {
		if dnd, parseErr := strconv.ParseBool(cached); parseErr == nil {
			return dnd, nil
		}
	} else if !r.cache.IsNotFound(err) {
		r.logger.Warn("DND cache read failed, falling back to database",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
	}

	customer, err := r.repos.Customer.FindByID(ctx, customerID)
	if err != nil {
		return false, err
	}
	if customer == nil {
		return false, customErr.NewNotFoundError("customer", customerID)
	}

	if err := r.cache.Set(ctx, key, strconv.FormatBool(customer.DND), r.dndTTL); err != nil {
		r.logger.Warn("DND cache write failed",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
	}

	return customer.DND, nil
}
