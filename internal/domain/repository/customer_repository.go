package repository

import (
	"context"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/identity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/google/uuid"
)

// CustomerRepository defines storage access for canonical customer records.
// Finders return (nil, nil) on a clean miss.
type CustomerRepository interface {
	// FindByID retrieves a customer by primary key.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)

	// FindByMobileAndPAN retrieves the customer matching both identifiers
	// at once (the highest-priority dedup rule).
	FindByMobileAndPAN(ctx context.Context, mobile, pan string) (*model.Customer, error)

	// FindByIdentifier retrieves the customer holding the given normalized
	// identifier value of one kind.
	FindByIdentifier(ctx context.Context, kind identity.IdentifierKind, value string) (*model.Customer, error)

	// Create inserts a new customer row. A unique-index collision on any
	// identifier column surfaces as an error recognized by
	// IsDuplicateIdentifier, so a losing concurrent creator can re-resolve.
	Create(ctx context.Context, customer *model.Customer) error

	// Update persists merged identifiers, segments, attributes and the DND
	// flag of an existing row.
	Update(ctx context.Context, customer *model.Customer) error

	// SetDND flips the do-not-disturb flag of one customer.
	SetDND(ctx context.Context, id uuid.UUID, dnd bool) error

	// PageForExport returns the next page of non-DND customers ordered by
	// id, each with its active offers preloaded. Pass uuid.Nil to start.
	PageForExport(ctx context.Context, afterID uuid.UUID, limit int) ([]model.Customer, error)

	// DeleteAgedOut removes up to limit customers last touched at or before
	// the cutoff that hold no remaining offers. Their events go with them
	// through the ownership cascade. Returns rows deleted.
	DeleteAgedOut(ctx context.Context, cutoff time.Time, limit int) (int64, error)

	// IsDuplicateIdentifier reports whether err came from a unique
	// violation on an identifier column.
	IsDuplicateIdentifier(err error) bool
}
