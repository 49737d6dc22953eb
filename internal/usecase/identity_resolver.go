package usecase

import (
	"context"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	customErr "github.com/anuragind003/cdp-offer-engine/internal/domain/errors"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/identity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// IdentityResolver maps an inbound identifier set to the single canonical
// customer record, creating one when nothing matches. Matching follows a
// strict priority order; when different identifiers of one payload belong
// to different existing customers the resolver refuses to merge them and
// reports a deduplication conflict instead.
type IdentityResolver struct {
	logger *zap.Logger
}

// NewIdentityResolver creates a new identity resolver instance
func NewIdentityResolver(logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		logger: logger,
	}
}

// Resolution reports the outcome of one resolve call.
type Resolution struct {
	Customer *model.Customer
	Created  bool

	// DNDChanged marks that the merge flipped the customer's DND flag, so
	// cached suppression lookups must be invalidated.
	DNDChanged bool
}

// Resolve finds or creates the customer for a normalized identifier set and
// merges the payload's segments, attributes and missing identifiers into
// the matched record. It must run inside the ingestion transaction; the
// caller serializes concurrent calls for the same identifier set.
func (r *IdentityResolver) Resolve(ctx context.Context, customers domainRepo.CustomerRepository, ids identity.Set, payload *entity.IngestionPayload) (*Resolution, error) {
	winner, err := r.match(ctx, customers, ids)
	if err != nil {
		return nil, err
	}

	if winner == nil {
		customer, err := r.create(ctx, customers, ids, payload)
		if err != nil {
			return nil, err
		}
		return &Resolution{Customer: customer, Created: true}, nil
	}

	dndChanged, err := r.merge(ctx, customers, winner, ids, payload)
	if err != nil {
		return nil, err
	}

	return &Resolution{Customer: winner, Created: false, DNDChanged: dndChanged}, nil
}

// match evaluates the dedup rules in priority order. The first hit wins;
// every further hit on a different customer is a data conflict the engine
// must not auto-merge.
func (r *IdentityResolver) match(ctx context.Context, customers domainRepo.CustomerRepository, ids identity.Set) (*model.Customer, error) {
	var candidates []*model.Customer

	collect := func(customer *model.Customer) {
		if customer == nil {
			return
		}
		for _, seen := range candidates {
			if seen.ID == customer.ID {
				return
			}
		}
		candidates = append(candidates, customer)
	}

	// Rule 1: mobile and PAN together
	if ids.Mobile != "" && ids.PAN != "" {
		customer, err := customers.FindByMobileAndPAN(ctx, ids.Mobile, ids.PAN)
		if err != nil {
			return nil, err
		}
		collect(customer)
	}

	// Rules 2-5: single identifiers in priority order, then mobile
	// ownership last. Mobile alone never outranks the stronger rules, but
	// a mobile owned by another customer must still surface as a conflict
	// rather than collide on the unique index later.
	lookups := []struct {
		kind  identity.IdentifierKind
		value string
	}{
		{identity.KindPAN, ids.PAN},
		{identity.KindAadhaarRef, ids.AadhaarRef},
		{identity.KindUCID, ids.UCID},
		{identity.KindPrevLoanApp, ids.PrevLoanApp},
		{identity.KindMobile, ids.Mobile},
	}

	for _, lookup := range lookups {
		if lookup.value == "" {
			continue
		}
		customer, err := customers.FindByIdentifier(ctx, lookup.kind, lookup.value)
		if err != nil {
			return nil, err
		}
		collect(customer)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	if len(candidates) > 1 {
		r.logger.Warn("Identifier set matches multiple customers",
			zap.String("candidate_a", candidates[0].ID.String()),
			zap.String("candidate_b", candidates[1].ID.String()))
		return nil, customErr.NewDeduplicationConflict(candidates[0].ID, candidates[1].ID)
	}

	return candidates[0], nil
}

// create inserts a brand-new customer carrying the identifier set. A unique
// violation here means a concurrent ingestion won the row; the caller
// retries the transaction and merges into the winner.
func (r *IdentityResolver) create(ctx context.Context, customers domainRepo.CustomerRepository, ids identity.Set, payload *entity.IngestionPayload) (*model.Customer, error) {
	customer := &model.Customer{
		ID:                uuid.New(),
		MobileNumber:      optional(ids.Mobile),
		PANNumber:         optional(ids.PAN),
		AadhaarRefNumber:  optional(ids.AadhaarRef),
		UCIDNumber:        optional(ids.UCID),
		PrevLoanAppNumber: optional(ids.PrevLoanApp),
		Segments:          payload.Segments,
		Attributes:        datatypes.JSONMap(payload.Attributes),
	}
	if payload.DND != nil {
		customer.DND = *payload.DND
	}

	if err := customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	r.logger.Info("Customer created from first-seen identifiers",
		zap.String("customer_id", customer.ID.String()))

	return customer, nil
}

// merge backfills identifiers the record lacks, unions segments and
// shallow-merges attributes with incoming values taking precedence.
// Differing non-null identifiers are kept as stored; only nulls are filled.
func (r *IdentityResolver) merge(ctx context.Context, customers domainRepo.CustomerRepository, customer *model.Customer, ids identity.Set, payload *entity.IngestionPayload) (bool, error) {
	changed := false

	backfill := func(field **string, value string, kind identity.IdentifierKind) {
		if value == "" {
			return
		}
		if *field == nil {
			v := value
			*field = &v
			changed = true
			return
		}
		if **field != value {
			r.logger.Warn("Incoming identifier differs from stored value, keeping stored",
				zap.String("customer_id", customer.ID.String()),
				zap.String("kind", string(kind)))
		}
	}

	backfill(&customer.MobileNumber, ids.Mobile, identity.KindMobile)
	backfill(&customer.PANNumber, ids.PAN, identity.KindPAN)
	backfill(&customer.AadhaarRefNumber, ids.AadhaarRef, identity.KindAadhaarRef)
	backfill(&customer.UCIDNumber, ids.UCID, identity.KindUCID)
	backfill(&customer.PrevLoanAppNumber, ids.PrevLoanApp, identity.KindPrevLoanApp)

	for _, segment := range payload.Segments {
		if segment == "" || customer.HasSegment(segment) {
			continue
		}
		customer.Segments = append(customer.Segments, segment)
		changed = true
	}

	if len(payload.Attributes) > 0 {
		if customer.Attributes == nil {
			customer.Attributes = datatypes.JSONMap{}
		}
		for key, value := range payload.Attributes {
			customer.Attributes[key] = value
			changed = true
		}
	}

	dndChanged := false
	if payload.DND != nil && customer.DND != *payload.DND {
		customer.DND = *payload.DND
		changed = true
		dndChanged = true
	}

	if !changed {
		return false, nil
	}

	if err := customers.Update(ctx, customer); err != nil {
		return false, err
	}

	r.logger.Info("Customer merged",
		zap.String("customer_id", customer.ID.String()),
		zap.Bool("dnd_changed", dndChanged))

	return dndChanged, nil
}

// optional returns a pointer for a present value, nil for an absent one
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
