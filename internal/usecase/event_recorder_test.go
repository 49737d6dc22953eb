package usecase

import (
	"context"
	"testing"
	"time"

	customErr "github.com/anuragind003/cdp-offer-engine/internal/domain/errors"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newTestRecorder(mocks *testMocks) *EventRecorder {
	lifecycle := NewOfferLifecycleManager(zap.NewNop())
	return NewEventRecorder(mocks.repos, mocks.tx, mocks.cache, lifecycle, 15*time.Minute, zap.NewNop())
}

func TestEventRecorder_RecordDropsMoengageEventForDNDCustomer(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)
	customerID := uuid.New()

	mocks.cache.On("Get", mock.Anything, "dnd:"+customerID.String()).Return("true", nil)

	result, err := recorder.Record(context.Background(), customerID, nil, model.EventSMSSent, model.EventSourceMoengage, nil)

	assert.NoError(t, err)
	assert.True(t, result.Dropped)
	assert.Nil(t, result.EventID)
	mocks.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mocks.customers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestEventRecorder_RecordKeepsLOSEventForDNDCustomer(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)
	customerID := uuid.New()

	// DND suppression only applies to the marketing channel
	mocks.cache.On("Get", mock.Anything, "dnd:"+customerID.String()).Return("true", nil)
	mocks.events.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Event) bool {
		return e.CustomerID == customerID && e.EventSource == model.EventSourceLOS
	})).Return(nil)

	result, err := recorder.Record(context.Background(), customerID, nil, model.EventAppStageEKYC, model.EventSourceLOS, nil)

	assert.NoError(t, err)
	assert.False(t, result.Dropped)
	assert.NotNil(t, result.EventID)
	mocks.events.AssertExpectations(t)
}

func TestEventRecorder_RecordLoadsDNDFromDatabaseOnCacheMiss(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)
	customerID := uuid.New()
	key := "dnd:" + customerID.String()

	mocks.cache.On("Get", mock.Anything, key).Return("", errCacheMiss)
	mocks.customers.On("FindByID", mock.Anything, customerID).Return(&model.Customer{ID: customerID, DND: false}, nil)
	mocks.cache.On("Set", mock.Anything, key, "false", 15*time.Minute).Return(nil)
	mocks.events.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := recorder.Record(context.Background(), customerID, nil, model.EventSMSSent, model.EventSourceMoengage, nil)

	assert.NoError(t, err)
	assert.False(t, result.Dropped)
	mocks.cache.AssertExpectations(t)
	mocks.customers.AssertExpectations(t)
}

func TestEventRecorder_RecordUnknownCustomer(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)
	customerID := uuid.New()

	mocks.cache.On("Get", mock.Anything, mock.Anything).Return("", errCacheMiss)
	mocks.customers.On("FindByID", mock.Anything, customerID).Return(nil, nil)

	result, err := recorder.Record(context.Background(), customerID, nil, model.EventSMSSent, model.EventSourceInternal, nil)

	assert.Nil(t, result)
	assert.True(t, customErr.IsKind(err, customErr.KindNotFound))
}

func TestEventRecorder_RecordValidatesInput(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)

	_, err := recorder.Record(context.Background(), uuid.New(), nil, "", model.EventSourceLOS, nil)
	assert.True(t, customErr.IsKind(err, customErr.KindValidation))

	_, err = recorder.Record(context.Background(), uuid.New(), nil, model.EventSMSSent, "carrier_pigeon", nil)
	assert.True(t, customErr.IsKind(err, customErr.KindValidation))
}

func TestEventRecorder_RecordRejectsForeignOffer(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)
	customerID := uuid.New()
	offerID := uuid.New()

	mocks.cache.On("Get", mock.Anything, mock.Anything).Return("false", nil)
	mocks.offers.On("FindByID", mock.Anything, offerID).Return(&model.Offer{
		ID:         offerID,
		CustomerID: uuid.New(),
	}, nil)

	result, err := recorder.Record(context.Background(), customerID, &offerID, model.EventConversion, model.EventSourceLOS, nil)

	assert.Nil(t, result)
	assert.True(t, customErr.IsKind(err, customErr.KindValidation))
	mocks.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEventRecorder_RecordTerminalLOSEventExpiresOffer(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)
	customerID := uuid.New()
	offerID := uuid.New()

	mocks.cache.On("Get", mock.Anything, mock.Anything).Return("false", nil)
	mocks.offers.On("FindByID", mock.Anything, offerID).Return(&model.Offer{
		ID:          offerID,
		CustomerID:  customerID,
		OfferStatus: model.OfferStatusActive,
	}, nil)
	mocks.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	mocks.offers.On("AttachLoanApplication", mock.Anything, offerID, "LN-2024-001").Return(true, nil)
	mocks.offers.On("Transition", mock.Anything, offerID, model.OfferStatusActive, model.OfferStatusExpired, ReasonJourneyTerminal).
		Return(true, model.OfferStatusExpired, nil)

	details := map[string]interface{}{"loan_application_number": "LN-2024-001"}
	result, err := recorder.Record(context.Background(), customerID, &offerID, model.EventLoanDisbursed, model.EventSourceLOS, details)

	assert.NoError(t, err)
	assert.NotNil(t, result.EventID)
	mocks.offers.AssertExpectations(t)
}

func TestEventRecorder_RecordTerminalEventOnSettledOfferIsNoop(t *testing.T) {
	mocks := newTestMocks()
	recorder := newTestRecorder(mocks)
	customerID := uuid.New()
	offerID := uuid.New()

	mocks.cache.On("Get", mock.Anything, mock.Anything).Return("false", nil)
	mocks.offers.On("FindByID", mock.Anything, offerID).Return(&model.Offer{
		ID:          offerID,
		CustomerID:  customerID,
		OfferStatus: model.OfferStatusExpired,
	}, nil)
	mocks.events.On("Create", mock.Anything, mock.Anything).Return(nil)
	// The guarded transition does not apply twice
	mocks.offers.On("Transition", mock.Anything, offerID, model.OfferStatusActive, model.OfferStatusExpired, ReasonJourneyTerminal).
		Return(false, model.OfferStatusExpired, nil)

	result, err := recorder.Record(context.Background(), customerID, &offerID, model.EventLoanRejected, model.EventSourceLOS, nil)

	assert.NoError(t, err)
	assert.NotNil(t, result.EventID)
	mocks.offers.AssertExpectations(t)
}
