package repository

import (
	"context"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/google/uuid"
)

// OfferRepository defines storage access for offers and their status history.
type OfferRepository interface {
	// FindByID retrieves an offer by primary key, or (nil, nil) when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)

	// ActiveByCustomer lists the customer's active offers.
	ActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Offer, error)

	// ActiveByCustomerLocked lists the customer's active offers under a row
	// lock, for classification decisions that may supersede one of them.
	// Call inside a transaction.
	ActiveByCustomerLocked(ctx context.Context, customerID uuid.UUID) ([]model.Offer, error)

	// ExistsInSlot reports whether any offer row, in any status, exists for
	// the customer's product/channel slot.
	ExistsInSlot(ctx context.Context, customerID uuid.UUID, productType model.ProductType, channel string) (bool, error)

	// Create inserts a new offer row.
	Create(ctx context.Context, offer *model.Offer) error

	// Transition moves an offer from one status to another and appends a
	// history entry in the same transaction. It only applies when the
	// offer currently holds the expected status; otherwise it reports
	// applied=false along with the status actually found.
	Transition(ctx context.Context, offerID uuid.UUID, from, to model.OfferStatus, reason string) (applied bool, current model.OfferStatus, err error)

	// AttachLoanApplication records the loan application number on an offer
	// exactly once. Reports whether this call set it.
	AttachLoanApplication(ctx context.Context, offerID uuid.UUID, loanAppNumber string) (bool, error)

	// LapsedActiveIDs returns up to limit ids of active offers whose end
	// date passed before the given instant and that have not started a
	// journey.
	LapsedActiveIDs(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error)

	// HistoryCountsSince returns, per offer id, how many status changes
	// were recorded at or after the given instant.
	HistoryCountsSince(ctx context.Context, offerIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int64, error)

	// DeleteTerminalOlderThan removes up to limit inactive or expired offers
	// last updated at or before the cutoff. Returns rows deleted.
	DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)

	// DeleteHistoryOlderThan removes up to limit history entries recorded at
	// or before the cutoff. Returns rows deleted.
	DeleteHistoryOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
