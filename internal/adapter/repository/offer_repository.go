package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// offerRepository implements the OfferRepository interface
type offerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOfferRepository creates a new offer repository instance
func NewOfferRepository(db *gorm.DB, logger *zap.Logger) domainRepo.OfferRepository {
	return &offerRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves an offer by primary key
func (r *offerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var offer model.Offer

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&offer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get offer",
			zap.String("offer_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return &offer, nil
}

// ActiveByCustomer lists the customer's active offers
func (r *offerRepository) ActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Offer, error) {
	var offers []model.Offer

	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND offer_status = ?", customerID, model.OfferStatusActive).
		Order("created_at ASC").
		Find(&offers).Error

	if err != nil {
		r.logger.Error("Failed to list active offers",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list active offers: %w", err)
	}

	return offers, nil
}

// ActiveByCustomerLocked lists the customer's active offers under FOR UPDATE
func (r *offerRepository) ActiveByCustomerLocked(ctx context.Context, customerID uuid.UUID) ([]model.Offer, error) {
	var offers []model.Offer

	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND offer_status = ?", customerID, model.OfferStatusActive).
		Order("created_at ASC").
		Find(&offers).Error

	if err != nil {
		r.logger.Error("Failed to lock active offers",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to lock active offers: %w", err)
	}

	return offers, nil
}

// ExistsInSlot reports whether any offer row exists for the slot
func (r *offerRepository) ExistsInSlot(ctx context.Context, customerID uuid.UUID, productType model.ProductType, channel string) (bool, error) {
	var exists bool

	err := r.db.WithContext(ctx).
		Raw(`SELECT EXISTS (SELECT 1 FROM offers WHERE customer_id = ? AND product_type = ? AND channel = ?)`,
			customerID, productType, channel).
		Scan(&exists).Error

	if err != nil {
		r.logger.Error("Failed to check offer slot",
			zap.String("customer_id", customerID.String()),
			zap.String("product_type", string(productType)),
			zap.String("channel", channel),
			zap.Error(err))
		return false, fmt.Errorf("failed to check offer slot: %w", err)
	}

	return exists, nil
}

// Create inserts a new offer row
func (r *offerRepository) Create(ctx context.Context, offer *model.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(offer).Error

	if err != nil {
		r.logger.Error("Failed to create offer",
			zap.String("offer_id", offer.ID.String()),
			zap.String("customer_id", offer.CustomerID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create offer: %w", err)
	}

	r.logger.Info("Offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("customer_id", offer.CustomerID.String()),
		zap.String("product_type", string(offer.ProductType)),
		zap.String("offer_type", string(offer.OfferType)))

	return nil
}

// Transition applies a guarded status change and appends the history entry
// in one transaction. When the offer no longer holds the expected status the
// change is skipped and the status actually found is returned.
func (r *offerRepository) Transition(ctx context.Context, offerID uuid.UUID, from, to model.OfferStatus, reason string) (bool, model.OfferStatus, error) {
	var applied bool
	var current model.OfferStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Offer{}).
			Where("id = ? AND offer_status = ?", offerID, from).
			Update("offer_status", to)
		if res.Error != nil {
			return fmt.Errorf("failed to update offer status: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			var offer model.Offer
			if err := tx.Where("id = ?", offerID).First(&offer).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("offer not found: %s", offerID)
				}
				return fmt.Errorf("failed to read offer status: %w", err)
			}
			applied = false
			current = offer.OfferStatus
			return nil
		}

		history := &model.OfferHistory{
			OfferID:         offerID,
			OldStatus:       from,
			NewStatus:       to,
			ChangeReason:    reason,
			StatusChangedAt: time.Now().UTC(),
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}

		applied = true
		current = to
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to transition offer",
			zap.String("offer_id", offerID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
		return false, "", fmt.Errorf("failed to transition offer: %w", err)
	}

	if applied {
		r.logger.Info("Offer transitioned",
			zap.String("offer_id", offerID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("reason", reason))
	}

	return applied, current, nil
}

// AttachLoanApplication records the loan application number exactly once
func (r *offerRepository) AttachLoanApplication(ctx context.Context, offerID uuid.UUID, loanAppNumber string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ? AND loan_application_number IS NULL", offerID).
		Update("loan_application_number", loanAppNumber)

	if res.Error != nil {
		r.logger.Error("Failed to attach loan application",
			zap.String("offer_id", offerID.String()),
			zap.Error(res.Error))
		return false, fmt.Errorf("failed to attach loan application: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		r.logger.Info("Loan application attached",
			zap.String("offer_id", offerID.String()),
			zap.String("loan_application_number", loanAppNumber))
	}

	return res.RowsAffected > 0, nil
}

// LapsedActiveIDs returns ids of active offers past their end date with no
// started journey
func (r *offerRepository) LapsedActiveIDs(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	err := r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("offer_status = ?", model.OfferStatusActive).
		Where("offer_end_date < ?", before).
		Where("loan_application_number IS NULL").
		Order("offer_end_date ASC").
		Limit(limit).
		Pluck("id", &ids).Error

	if err != nil {
		r.logger.Error("Failed to list lapsed offers",
			zap.Time("before", before),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list lapsed offers: %w", err)
	}

	return ids, nil
}

// HistoryCountsSince returns per-offer counts of recent status changes
func (r *offerRepository) HistoryCountsSince(ctx context.Context, offerIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(offerIDs))
	if len(offerIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		OfferID uuid.UUID
		Total   int64
	}

	err := r.db.WithContext(ctx).
		Model(&model.OfferHistory{}).
		Select("offer_id, COUNT(*) AS total").
		Where("offer_id IN ?", offerIDs).
		Where("status_changed_at >= ?", since).
		Group("offer_id").
		Scan(&rows).Error

	if err != nil {
		r.logger.Error("Failed to count offer history",
			zap.Int("offer_count", len(offerIDs)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to count offer history: %w", err)
	}

	for _, row := range rows {
		counts[row.OfferID] = row.Total
	}

	return counts, nil
}

// DeleteTerminalOlderThan removes inactive and expired offers past the cutoff
func (r *offerRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	sub := r.db.Model(&model.Offer{}).
		Select("id").
		Where("offer_status IN ?", []model.OfferStatus{model.OfferStatusInactive, model.OfferStatusExpired}).
		Where("updated_at <= ?", cutoff).
		Limit(limit)

	res := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Delete(&model.Offer{})

	if res.Error != nil {
		r.logger.Error("Failed to delete terminal offers",
			zap.Time("cutoff", cutoff),
			zap.Error(res.Error))
		return 0, fmt.Errorf("failed to delete terminal offers: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// DeleteHistoryOlderThan removes history entries recorded at or before the cutoff
func (r *offerRepository) DeleteHistoryOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	sub := r.db.Model(&model.OfferHistory{}).
		Select("id").
		Where("status_changed_at <= ?", cutoff).
		Limit(limit)

	res := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Delete(&model.OfferHistory{})

	if res.Error != nil {
		r.logger.Error("Failed to delete offer history",
			zap.Time("cutoff", cutoff),
			zap.Error(res.Error))
		return 0, fmt.Errorf("failed to delete offer history: %w", res.Error)
	}

	return res.RowsAffected, nil
}
