package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	customErr "github.com/anuragind003/cdp-offer-engine/internal/domain/errors"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/identity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// extractRefLength sizes the opaque reference stamped on every extract row.
const extractRefLength = 12

// Engine is the facade the surrounding system calls. It owns ingestion
// orchestration end to end: normalize, resolve, classify and persist in
// one transaction per payload, serialized per identifier set.
type Engine struct {
	repos      *domainRepo.Repositories
	txManager  domainRepo.TxManager
	cache      domainRepo.CacheRepository
	resolver   *IdentityResolver
	classifier *OfferClassifier
	lifecycle  *OfferLifecycleManager
	recorder   *EventRecorder
	purger     *RetentionPurger
	exporter   *CampaignExportSelector

	locks     *identity.KeyedLock
	validate  *validator.Validate
	recentCap int
	logger    *zap.Logger
}

// NewEngine creates the engine facade from its components.
func NewEngine(
	repos *domainRepo.Repositories,
	txManager domainRepo.TxManager,
	cache domainRepo.CacheRepository,
	resolver *IdentityResolver,
	classifier *OfferClassifier,
	lifecycle *OfferLifecycleManager,
	recorder *EventRecorder,
	purger *RetentionPurger,
	exporter *CampaignExportSelector,
	lockStripes int,
	profileRecentEvents int,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		repos:      repos,
		txManager:  txManager,
		cache:      cache,
		resolver:   resolver,
		classifier: classifier,
		lifecycle:  lifecycle,
		recorder:   recorder,
		purger:     purger,
		exporter:   exporter,
		locks:      identity.NewKeyedLock(lockStripes),
		validate:   validator.New(),
		recentCap:  profileRecentEvents,
		logger:     logger,
	}
}

// IngestOffer processes one validated ingestion payload: resolves the
// customer, classifies the candidate offer against the customer's active
// set and persists the outcome atomically. A caller losing a concurrent
// create race is retried once and merges into the winner's rows.
func (e *Engine) IngestOffer(ctx context.Context, sourceSystem, dataType string, payload *entity.IngestionPayload) (*entity.IngestResult, error) {
	if sourceSystem == "" {
		return nil, customErr.NewValidationError("source system is required", nil)
	}
	if !strings.EqualFold(dataType, "offer") {
		return nil, customErr.NewValidationError(fmt.Sprintf("unsupported data type: %s", dataType), nil)
	}
	if payload == nil {
		return nil, customErr.NewValidationError("payload is required", nil)
	}
	if err := e.validate.Struct(payload); err != nil {
		return nil, customErr.NewValidationError("malformed ingestion payload", err)
	}

	ids := identity.NormalizeSet(
		payload.MobileNumber,
		payload.PANNumber,
		payload.AadhaarRefNumber,
		payload.UCIDNumber,
		payload.PrevLoanAppNumber,
	)
	if ids.Empty() {
		return nil, customErr.NewValidationError("at least one usable identifier is required", nil)
	}

	// Serialize concurrent ingestions of the same identifier set for the
	// whole resolve+create transaction.
	lockKey := ids.LockKey()
	e.locks.Lock(lockKey)
	defer e.locks.Unlock(lockKey)

	var result *entity.IngestResult
	var invalidateDND *uuid.UUID

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		result = nil
		invalidateDND = nil

		err = e.txManager.Transaction(ctx, func(repos *domainRepo.Repositories) error {
			resolution, err := e.resolver.Resolve(ctx, repos.Customer, ids, payload)
			if err != nil {
				return err
			}
			customer := resolution.Customer
			if resolution.DNDChanged {
				id := customer.ID
				invalidateDND = &id
			}

			outcome, err := e.placeOffer(ctx, repos, customer, sourceSystem, &payload.Offer)
			if err != nil {
				return err
			}

			outcome.CustomerID = customer.ID
			outcome.CustomerCreated = resolution.Created
			result = outcome
			return nil
		})
		if err == nil {
			break
		}
		// A unique violation means a concurrent ingestion owns the row now;
		// rerun the transaction to merge into it.
		if attempt == 0 && e.repos.Customer.IsDuplicateIdentifier(err) {
			e.logger.Warn("Ingestion lost a create race, retrying")
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if invalidateDND != nil {
		if err := e.cache.Delete(ctx, dndCacheKey(*invalidateDND)); err != nil {
			e.logger.Warn("Failed to invalidate DND cache",
				zap.String("customer_id", invalidateDND.String()),
				zap.Error(err))
		}
	}

	e.logger.Info("Ingestion completed",
		zap.String("customer_id", result.CustomerID.String()),
		zap.Bool("customer_created", result.CustomerCreated),
		zap.String("action", string(result.Action)),
		zap.String("offer_type", result.OfferType))

	return result, nil
}

// placeOffer classifies the candidate against the customer's locked active
// set and applies the decision.
func (e *Engine) placeOffer(ctx context.Context, repos *domainRepo.Repositories, customer *model.Customer, sourceSystem string, candidate *entity.CandidateOffer) (*entity.IngestResult, error) {
	active, err := repos.Offer.ActiveByCustomerLocked(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	slotSeen, err := repos.Offer.ExistsInSlot(ctx, customer.ID, model.ProductType(candidate.ProductType), candidate.Channel)
	if err != nil {
		return nil, err
	}

	decision := e.classifier.Classify(active, slotSeen, candidate)

	if decision.Action == entity.ActionRejectDuplicate {
		return &entity.IngestResult{
			OfferID:   &decision.Duplicate.ID,
			OfferType: string(decision.Duplicate.OfferType),
			Action:    entity.ActionRejectDuplicate,
			Message:   "duplicate of existing active offer",
		}, nil
	}

	for i := range decision.Supersede {
		if _, err := e.lifecycle.Supersede(ctx, repos.Offer, decision.Supersede[i].ID, decision.SupersedeReason); err != nil {
			return nil, err
		}
	}

	offer := &model.Offer{
		ID:                 uuid.New(),
		CustomerID:         customer.ID,
		ProductType:        model.ProductType(candidate.ProductType),
		Channel:            candidate.Channel,
		OfferType:          decision.OfferType,
		OfferStatus:        model.OfferStatusActive,
		Propensity:         candidate.Propensity,
		OfferAmount:        candidate.OfferAmount,
		InterestRate:       candidate.InterestRate,
		OfferStartDate:     candidate.StartDate,
		OfferEndDate:       candidate.EndDate,
		AttributionChannel: sourceSystem,
	}
	if err := repos.Offer.Create(ctx, offer); err != nil {
		return nil, err
	}

	message := "offer created"
	if len(decision.Supersede) > 0 {
		message = "offer created, superseded existing active offer"
	}

	// A candidate outranked by an active offer still gets its row for
	// audit, settled inactive within the same transaction.
	if decision.CandidateLoses {
		if _, err := e.lifecycle.Supersede(ctx, repos.Offer, offer.ID, decision.SupersedeReason); err != nil {
			return nil, err
		}
		message = "offer created, outranked by a higher-precedence active offer"
	}

	return &entity.IngestResult{
		OfferID:   &offer.ID,
		OfferType: string(decision.OfferType),
		Action:    decision.Action,
		Message:   message,
	}, nil
}

// RecordEvent persists one inbound event, applying DND suppression and the
// terminal-journey expiry coupling.
func (e *Engine) RecordEvent(ctx context.Context, customerID uuid.UUID, offerID *uuid.UUID, eventType model.EventType, source model.EventSource, details map[string]interface{}) (*entity.RecordEventResult, error) {
	return e.recorder.Record(ctx, customerID, offerID, eventType, source, details)
}

// GetCustomerProfile returns the customer with its active offers and most
// recent events.
func (e *Engine) GetCustomerProfile(ctx context.Context, customerID uuid.UUID) (*entity.CustomerProfile, error) {
	customer, err := e.repos.Customer.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customErr.NewNotFoundError("customer", customerID)
	}

	active, err := e.repos.Offer.ActiveByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	events, err := e.repos.Event.RecentByCustomer(ctx, customerID, e.recentCap)
	if err != nil {
		return nil, err
	}

	return &entity.CustomerProfile{
		Customer:     customer,
		ActiveOffers: active,
		RecentEvents: events,
	}, nil
}

// UpdateCustomerDND flips a customer's do-not-disturb flag and invalidates
// the cached suppression lookup.
func (e *Engine) UpdateCustomerDND(ctx context.Context, customerID uuid.UUID, dnd bool) error {
	customer, err := e.repos.Customer.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return customErr.NewNotFoundError("customer", customerID)
	}

	if customer.DND == dnd {
		return nil
	}

	if err := e.repos.Customer.SetDND(ctx, customerID, dnd); err != nil {
		return err
	}

	if err := e.cache.Delete(ctx, dndCacheKey(customerID)); err != nil {
		e.logger.Warn("Failed to invalidate DND cache",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
	}

	e.logger.Info("Customer DND updated",
		zap.String("customer_id", customerID.String()),
		zap.Bool("dnd", dnd))

	return nil
}

// RunRetentionSweep executes one idempotent retention pass and reports the
// rows it removed.
func (e *Engine) RunRetentionSweep(ctx context.Context) (entity.SweepCounts, error) {
	return e.purger.Run(ctx)
}

// GenerateCampaignExtract streams export rows to fn under a fresh extract
// reference. When a campaign name is given, the attempted counter for this
// run is recorded after the extract finishes.
func (e *Engine) GenerateCampaignExtract(ctx context.Context, campaignName string, fn func(row entity.ExportRow) error) (int64, string, error) {
	extractRef, err := gonanoid.New(extractRefLength)
	if err != nil {
		return 0, "", fmt.Errorf("failed to generate extract ref: %w", err)
	}

	rows, err := e.exporter.Stream(ctx, extractRef, fn)
	if err != nil {
		return rows, extractRef, err
	}

	if campaignName != "" && rows > 0 {
		if err := e.repos.CampaignMetric.IncrementAttempted(ctx, campaignName, extractRef, rows); err != nil {
			e.logger.Warn("Failed to record attempted counter",
				zap.String("campaign_name", campaignName),
				zap.String("extract_ref", extractRef),
				zap.Error(err))
		}
	}

	e.logger.Info("Campaign extract generated",
		zap.String("extract_ref", extractRef),
		zap.Int64("rows", rows))

	return rows, extractRef, nil
}
