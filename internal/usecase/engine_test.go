package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/entity"
	customErr "github.com/anuragind003/cdp-offer-engine/internal/domain/errors"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/identity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newTestEngine(mocks *testMocks) *Engine {
	log := zap.NewNop()
	classifier := NewOfferClassifier(testPriority, log)
	lifecycle := NewOfferLifecycleManager(log)
	resolver := NewIdentityResolver(log)
	recorder := NewEventRecorder(mocks.repos, mocks.tx, mocks.cache, lifecycle, 15*time.Minute, log)
	purger := NewRetentionPurger(mocks.tx, lifecycle, 6, 3, 500, log)
	exporter := NewCampaignExportSelector(mocks.repos, classifier, 500, 6, log)
	return NewEngine(mocks.repos, mocks.tx, mocks.cache,
		resolver, classifier, lifecycle, recorder, purger, exporter,
		64, 20, log)
}

func ingestionPayload() *entity.IngestionPayload {
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	return &entity.IngestionPayload{
		MobileNumber: "9876543210",
		PANNumber:    "ABCDE1234F",
		Segments:     []string{"salaried"},
		Offer: entity.CandidateOffer{
			ProductType:  "preapproved",
			Channel:      "sms",
			Propensity:   "H1",
			OfferAmount:  decimal.NewFromInt(500000),
			InterestRate: decimal.NewFromFloat(12.5),
			StartDate:    start,
			EndDate:      start.AddDate(0, 1, 0),
		},
	}
}

func TestEngine_IngestOfferCreatesCustomerAndFreshOffer(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)

	mocks.customers.On("FindByMobileAndPAN", mock.Anything, "9876543210", "ABCDE1234F").Return(nil, nil)
	mocks.customers.On("FindByIdentifier", mock.Anything, identity.KindPAN, "ABCDE1234F").Return(nil, nil)
	mocks.customers.On("FindByIdentifier", mock.Anything, identity.KindMobile, "9876543210").Return(nil, nil)
	mocks.customers.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Customer) bool {
		return c.MobileNumber != nil && *c.MobileNumber == "9876543210" &&
			c.PANNumber != nil && *c.PANNumber == "ABCDE1234F"
	})).Return(nil)
	mocks.offers.On("ActiveByCustomerLocked", mock.Anything, mock.Anything).Return([]model.Offer{}, nil)
	mocks.offers.On("ExistsInSlot", mock.Anything, mock.Anything, model.ProductPreapproved, "sms").Return(false, nil)
	mocks.offers.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Offer) bool {
		return o.OfferType == model.OfferTypeFresh &&
			o.OfferStatus == model.OfferStatusActive &&
			o.AttributionChannel == "offermart"
	})).Return(nil)

	result, err := engine.IngestOffer(context.Background(), "offermart", "offer", ingestionPayload())

	assert.NoError(t, err)
	assert.True(t, result.CustomerCreated)
	assert.Equal(t, entity.ActionCreateNew, result.Action)
	assert.Equal(t, string(model.OfferTypeFresh), result.OfferType)
	assert.NotNil(t, result.OfferID)
	assert.Equal(t, "offer created", result.Message)
	mocks.customers.AssertExpectations(t)
	mocks.offers.AssertExpectations(t)
}

func TestEngine_IngestOfferRejectsExactDuplicate(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	payload := ingestionPayload()

	mobile, pan := "9876543210", "ABCDE1234F"
	customer := &model.Customer{
		ID:           uuid.New(),
		MobileNumber: &mobile,
		PANNumber:    &pan,
		Segments:     pq.StringArray{"salaried"},
	}
	existing := model.Offer{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		ProductType:    model.ProductPreapproved,
		Channel:        "sms",
		OfferType:      model.OfferTypeFresh,
		OfferStatus:    model.OfferStatusActive,
		Propensity:     "H1",
		OfferAmount:    decimal.NewFromInt(500000),
		InterestRate:   decimal.NewFromFloat(12.5),
		OfferStartDate: payload.Offer.StartDate,
		OfferEndDate:   payload.Offer.EndDate,
	}

	mocks.customers.On("FindByMobileAndPAN", mock.Anything, mobile, pan).Return(customer, nil)
	mocks.customers.On("FindByIdentifier", mock.Anything, identity.KindPAN, pan).Return(customer, nil)
	mocks.customers.On("FindByIdentifier", mock.Anything, identity.KindMobile, mobile).Return(customer, nil)
	mocks.offers.On("ActiveByCustomerLocked", mock.Anything, customer.ID).Return([]model.Offer{existing}, nil)
	mocks.offers.On("ExistsInSlot", mock.Anything, customer.ID, model.ProductPreapproved, "sms").Return(true, nil)

	result, err := engine.IngestOffer(context.Background(), "offermart", "offer", payload)

	assert.NoError(t, err)
	assert.False(t, result.CustomerCreated)
	assert.Equal(t, customer.ID, result.CustomerID)
	assert.Equal(t, entity.ActionRejectDuplicate, result.Action)
	assert.Equal(t, &existing.ID, result.OfferID)
	mocks.offers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mocks.customers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEngine_IngestOfferSupersedesWeakerRival(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	payload := ingestionPayload()

	pan := "ABCDE1234F"
	mobile := "9876543210"
	customer := &model.Customer{
		ID:           uuid.New(),
		MobileNumber: &mobile,
		PANNumber:    &pan,
		Segments:     pq.StringArray{"salaried"},
	}
	rival := activeOffer(model.ProductProspect, "sms", payload.Offer.StartDate.AddDate(0, -1, 0), payload.Offer.EndDate)
	rival.CustomerID = customer.ID

	mocks.customers.On("FindByMobileAndPAN", mock.Anything, mobile, pan).Return(customer, nil)
	mocks.customers.On("FindByIdentifier", mock.Anything, mock.Anything, mock.Anything).Return(customer, nil)
	mocks.offers.On("ActiveByCustomerLocked", mock.Anything, customer.ID).Return([]model.Offer{rival}, nil)
	mocks.offers.On("ExistsInSlot", mock.Anything, customer.ID, model.ProductPreapproved, "sms").Return(false, nil)
	mocks.offers.On("Transition", mock.Anything, rival.ID, model.OfferStatusActive, model.OfferStatusInactive, ReasonSupersededByPrecedence).
		Return(true, model.OfferStatusInactive, nil)
	mocks.offers.On("Create", mock.Anything, mock.MatchedBy(func(o *model.Offer) bool {
		return o.OfferType == model.OfferTypeNewNew && o.CustomerID == customer.ID
	})).Return(nil)

	result, err := engine.IngestOffer(context.Background(), "offermart", "offer", payload)

	assert.NoError(t, err)
	assert.Equal(t, entity.ActionSupersedeExisting, result.Action)
	assert.Equal(t, string(model.OfferTypeNewNew), result.OfferType)
	assert.Equal(t, "offer created, superseded existing active offer", result.Message)
	mocks.offers.AssertExpectations(t)
}

func TestEngine_IngestOfferSettlesCandidateOutrankedByActiveOffer(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	payload := ingestionPayload()
	payload.Offer.ProductType = "prospect"

	pan := "ABCDE1234F"
	mobile := "9876543210"
	customer := &model.Customer{
		ID:           uuid.New(),
		MobileNumber: &mobile,
		PANNumber:    &pan,
		Segments:     pq.StringArray{"salaried"},
	}
	holder := activeOffer(model.ProductLoyalty, "sms", payload.Offer.StartDate, payload.Offer.EndDate)
	holder.CustomerID = customer.ID

	mocks.customers.On("FindByMobileAndPAN", mock.Anything, mobile, pan).Return(customer, nil)
	mocks.customers.On("FindByIdentifier", mock.Anything, mock.Anything, mock.Anything).Return(customer, nil)
	mocks.offers.On("ActiveByCustomerLocked", mock.Anything, customer.ID).Return([]model.Offer{holder}, nil)
	mocks.offers.On("ExistsInSlot", mock.Anything, customer.ID, model.ProductProspect, "sms").Return(false, nil)
	mocks.offers.On("Create", mock.Anything, mock.Anything).Return(nil)
	// The audit row settles inactive; the holder keeps its slot.
	mocks.offers.On("Transition", mock.Anything, mock.MatchedBy(func(id uuid.UUID) bool {
		return id != holder.ID
	}), model.OfferStatusActive, model.OfferStatusInactive, ReasonSupersededByPrecedence).
		Return(true, model.OfferStatusInactive, nil)

	result, err := engine.IngestOffer(context.Background(), "offermart", "offer", payload)

	assert.NoError(t, err)
	assert.Equal(t, entity.ActionCreateNew, result.Action)
	assert.Equal(t, string(model.OfferTypeNewNew), result.OfferType)
	assert.Equal(t, "offer created, outranked by a higher-precedence active offer", result.Message)
	mocks.offers.AssertExpectations(t)
}

func TestEngine_IngestOfferValidation(t *testing.T) {
	tests := []struct {
		name         string
		sourceSystem string
		dataType     string
		mutate       func(p *entity.IngestionPayload) *entity.IngestionPayload
	}{
		{
			name:     "missing source system",
			dataType: "offer",
			mutate:   func(p *entity.IngestionPayload) *entity.IngestionPayload { return p },
		},
		{
			name:         "unsupported data type",
			sourceSystem: "offermart",
			dataType:     "lead",
			mutate:       func(p *entity.IngestionPayload) *entity.IngestionPayload { return p },
		},
		{
			name:         "nil payload",
			sourceSystem: "offermart",
			dataType:     "offer",
			mutate:       func(p *entity.IngestionPayload) *entity.IngestionPayload { return nil },
		},
		{
			name:         "unknown product type",
			sourceSystem: "offermart",
			dataType:     "offer",
			mutate: func(p *entity.IngestionPayload) *entity.IngestionPayload {
				p.Offer.ProductType = "gold_loan"
				return p
			},
		},
		{
			name:         "window ends before it starts",
			sourceSystem: "offermart",
			dataType:     "offer",
			mutate: func(p *entity.IngestionPayload) *entity.IngestionPayload {
				p.Offer.EndDate = p.Offer.StartDate.AddDate(0, -1, 0)
				return p
			},
		},
		{
			name:         "no identifier survives normalization",
			sourceSystem: "offermart",
			dataType:     "offer",
			mutate: func(p *entity.IngestionPayload) *entity.IngestionPayload {
				p.MobileNumber = "12345"
				p.PANNumber = "NOT-A-PAN"
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := newTestMocks()
			engine := newTestEngine(mocks)

			result, err := engine.IngestOffer(context.Background(), tt.sourceSystem, tt.dataType, tt.mutate(ingestionPayload()))

			assert.Nil(t, result)
			assert.True(t, customErr.IsKind(err, customErr.KindValidation))
			mocks.customers.AssertNotCalled(t, "FindByIdentifier", mock.Anything, mock.Anything, mock.Anything)
			mocks.offers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestEngine_IngestOfferRetriesLostCreateRace(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	payload := ingestionPayload()
	payload.MobileNumber = ""
	payload.Segments = nil

	pan := "ABCDE1234F"
	winner := &model.Customer{ID: uuid.New(), PANNumber: &pan}

	// First pass finds nothing and loses the insert race; the rerun merges
	// into the row the concurrent ingestion created.
	mocks.customers.On("FindByIdentifier", mock.Anything, identity.KindPAN, pan).Return(nil, nil).Once()
	mocks.customers.On("Create", mock.Anything, mock.Anything).Return(errDuplicateKey).Once()
	mocks.customers.On("FindByIdentifier", mock.Anything, identity.KindPAN, pan).Return(winner, nil).Once()
	mocks.offers.On("ActiveByCustomerLocked", mock.Anything, winner.ID).Return([]model.Offer{}, nil)
	mocks.offers.On("ExistsInSlot", mock.Anything, winner.ID, model.ProductPreapproved, "sms").Return(false, nil)
	mocks.offers.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := engine.IngestOffer(context.Background(), "offermart", "offer", payload)

	assert.NoError(t, err)
	assert.False(t, result.CustomerCreated)
	assert.Equal(t, winner.ID, result.CustomerID)
	assert.Equal(t, entity.ActionCreateNew, result.Action)
	mocks.customers.AssertExpectations(t)
	mocks.offers.AssertExpectations(t)
}

func TestEngine_IngestOfferInvalidatesDNDCacheOnMergeFlip(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	payload := ingestionPayload()
	payload.MobileNumber = ""
	payload.Segments = nil
	dnd := true
	payload.DND = &dnd

	pan := "ABCDE1234F"
	customer := &model.Customer{ID: uuid.New(), PANNumber: &pan, DND: false}

	mocks.customers.On("FindByIdentifier", mock.Anything, identity.KindPAN, pan).Return(customer, nil)
	mocks.customers.On("Update", mock.Anything, mock.MatchedBy(func(c *model.Customer) bool {
		return c.ID == customer.ID && c.DND
	})).Return(nil)
	mocks.offers.On("ActiveByCustomerLocked", mock.Anything, customer.ID).Return([]model.Offer{}, nil)
	mocks.offers.On("ExistsInSlot", mock.Anything, customer.ID, model.ProductPreapproved, "sms").Return(false, nil)
	mocks.offers.On("Create", mock.Anything, mock.Anything).Return(nil)
	mocks.cache.On("Delete", mock.Anything, []string{"dnd:" + customer.ID.String()}).Return(nil)

	result, err := engine.IngestOffer(context.Background(), "offermart", "offer", payload)

	assert.NoError(t, err)
	assert.False(t, result.CustomerCreated)
	mocks.customers.AssertExpectations(t)
	mocks.cache.AssertExpectations(t)
}

func TestEngine_GetCustomerProfile(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)

	customer := &model.Customer{ID: uuid.New(), Segments: pq.StringArray{"etb"}}
	offers := []model.Offer{activeOffer(model.ProductLoyalty, "sms", time.Now(), time.Now().AddDate(0, 1, 0))}
	events := []model.Event{{ID: uuid.New(), CustomerID: customer.ID, EventType: model.EventSMSSent}}

	mocks.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	mocks.offers.On("ActiveByCustomer", mock.Anything, customer.ID).Return(offers, nil)
	mocks.events.On("RecentByCustomer", mock.Anything, customer.ID, 20).Return(events, nil)

	profile, err := engine.GetCustomerProfile(context.Background(), customer.ID)

	assert.NoError(t, err)
	assert.Equal(t, customer, profile.Customer)
	assert.Len(t, profile.ActiveOffers, 1)
	assert.Len(t, profile.RecentEvents, 1)
	mocks.events.AssertExpectations(t)
}

func TestEngine_GetCustomerProfileUnknownCustomer(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	customerID := uuid.New()

	mocks.customers.On("FindByID", mock.Anything, customerID).Return(nil, nil)

	profile, err := engine.GetCustomerProfile(context.Background(), customerID)

	assert.Nil(t, profile)
	assert.True(t, customErr.IsKind(err, customErr.KindNotFound))
	mocks.offers.AssertNotCalled(t, "ActiveByCustomer", mock.Anything, mock.Anything)
}

func TestEngine_UpdateCustomerDND(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	customerID := uuid.New()

	mocks.customers.On("FindByID", mock.Anything, customerID).Return(&model.Customer{ID: customerID, DND: false}, nil)
	mocks.customers.On("SetDND", mock.Anything, customerID, true).Return(nil)
	mocks.cache.On("Delete", mock.Anything, []string{"dnd:" + customerID.String()}).Return(nil)

	err := engine.UpdateCustomerDND(context.Background(), customerID, true)

	assert.NoError(t, err)
	mocks.customers.AssertExpectations(t)
	mocks.cache.AssertExpectations(t)
}

func TestEngine_UpdateCustomerDNDUnchangedIsNoop(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	customerID := uuid.New()

	mocks.customers.On("FindByID", mock.Anything, customerID).Return(&model.Customer{ID: customerID, DND: true}, nil)

	err := engine.UpdateCustomerDND(context.Background(), customerID, true)

	assert.NoError(t, err)
	mocks.customers.AssertNotCalled(t, "SetDND", mock.Anything, mock.Anything, mock.Anything)
	mocks.cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestEngine_GenerateCampaignExtract(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)
	now := time.Now().UTC()

	offer := activeOffer(model.ProductPreapproved, "sms", now, now.AddDate(0, 1, 0))
	customer := exportCustomer("9876543210", []string{"etb"}, offer)

	mocks.customers.On("PageForExport", mock.Anything, uuid.Nil, 500).Return([]model.Customer{customer}, nil)
	mocks.offers.On("HistoryCountsSince", mock.Anything, mock.Anything, mock.Anything).
		Return(map[uuid.UUID]int64{offer.ID: 1}, nil)
	mocks.metrics.On("IncrementAttempted", mock.Anything, "diwali_fest", mock.MatchedBy(func(ref string) bool {
		return len(ref) == extractRefLength
	}), int64(1)).Return(nil)

	var rows []entity.ExportRow
	count, ref, err := engine.GenerateCampaignExtract(context.Background(), "diwali_fest", func(row entity.ExportRow) error {
		rows = append(rows, row)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, ref, extractRefLength)
	assert.Len(t, rows, 1)
	assert.Equal(t, ref, rows[0].ExtractRef)
	mocks.metrics.AssertExpectations(t)
}

func TestEngine_GenerateCampaignExtractAnonymousSkipsMetrics(t *testing.T) {
	mocks := newTestMocks()
	engine := newTestEngine(mocks)

	mocks.customers.On("PageForExport", mock.Anything, uuid.Nil, 500).Return([]model.Customer{}, nil)

	count, ref, err := engine.GenerateCampaignExtract(context.Background(), "", func(row entity.ExportRow) error {
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Len(t, ref, extractRefLength)
	mocks.metrics.AssertNotCalled(t, "IncrementAttempted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
