package usecase

import (
	"context"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Change reasons recorded in offer history rows.
const (
	ReasonSupersededByPrecedence = "superseded by higher-precedence offer"
	ReasonEnriched               = "enriched with updated propensity/amount"
	ReasonReissued               = "re-issued with a new validity window"
	ReasonOfferLapsed            = "validity window lapsed with no journey"
	ReasonJourneyTerminal        = "loan journey reached terminal status"
)

// OfferLifecycleManager owns the offer state machine. Active is the only
// entry state; inactive and expired are terminal. Every applied transition
// is transactional with its history row. Transitioning an offer that is no
// longer active is a warning-level no-op, not an error, since sweeps and
// events may race over an offer already settled.
type OfferLifecycleManager struct {
	logger *zap.Logger
}

// NewOfferLifecycleManager creates a new lifecycle manager instance
func NewOfferLifecycleManager(logger *zap.Logger) *OfferLifecycleManager {
	return &OfferLifecycleManager{
		logger: logger,
	}
}

// Supersede moves an active offer to inactive. Inactive records that the
// offer lost its slot to precedence, not that it lapsed. Returns the status
// the offer holds after the call.
func (m *OfferLifecycleManager) Supersede(ctx context.Context, offers domainRepo.OfferRepository, offerID uuid.UUID, reason string) (model.OfferStatus, error) {
	applied, current, err := offers.Transition(ctx, offerID, model.OfferStatusActive, model.OfferStatusInactive, reason)
	if err != nil {
		return "", err
	}

	if !applied {
		m.logger.Warn("Supersede skipped, offer already settled",
			zap.String("offer_id", offerID.String()),
			zap.String("current_status", string(current)))
	}

	return current, nil
}

// Expire moves an active offer to expired, either because its validity
// window lapsed with no journey or because its loan journey ended. Returns
// the status the offer holds after the call.
func (m *OfferLifecycleManager) Expire(ctx context.Context, offers domainRepo.OfferRepository, offerID uuid.UUID, reason string) (model.OfferStatus, error) {
	applied, current, err := offers.Transition(ctx, offerID, model.OfferStatusActive, model.OfferStatusExpired, reason)
	if err != nil {
		return "", err
	}

	if !applied {
		m.logger.Warn("Expire skipped, offer already settled",
			zap.String("offer_id", offerID.String()),
			zap.String("current_status", string(current)))
	}

	return current, nil
}
