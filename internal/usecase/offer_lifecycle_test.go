package usecase

import (
	"context"
	"testing"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestOfferLifecycleManager_Supersede(t *testing.T) {
	offers := new(MockOfferRepository)
	manager := NewOfferLifecycleManager(zap.NewNop())
	offerID := uuid.New()

	offers.On("Transition", mock.Anything, offerID, model.OfferStatusActive, model.OfferStatusInactive, ReasonSupersededByPrecedence).
		Return(true, model.OfferStatusInactive, nil)

	current, err := manager.Supersede(context.Background(), offers, offerID, ReasonSupersededByPrecedence)

	assert.NoError(t, err)
	assert.Equal(t, model.OfferStatusInactive, current)
	offers.AssertExpectations(t)
}

func TestOfferLifecycleManager_ExpireAlreadySettled(t *testing.T) {
	offers := new(MockOfferRepository)
	manager := NewOfferLifecycleManager(zap.NewNop())
	offerID := uuid.New()

	// Racing sweeps may find the offer settled; that is a no-op, not an error.
	offers.On("Transition", mock.Anything, offerID, model.OfferStatusActive, model.OfferStatusExpired, ReasonOfferLapsed).
		Return(false, model.OfferStatusInactive, nil)

	current, err := manager.Expire(context.Background(), offers, offerID, ReasonOfferLapsed)

	assert.NoError(t, err)
	assert.Equal(t, model.OfferStatusInactive, current)
	offers.AssertExpectations(t)
}

func TestOfferLifecycleManager_TransitionFailure(t *testing.T) {
	offers := new(MockOfferRepository)
	manager := NewOfferLifecycleManager(zap.NewNop())
	offerID := uuid.New()

	offers.On("Transition", mock.Anything, offerID, model.OfferStatusActive, model.OfferStatusExpired, ReasonJourneyTerminal).
		Return(false, model.OfferStatus(""), errStorageBroken)

	_, err := manager.Expire(context.Background(), offers, offerID, ReasonJourneyTerminal)

	assert.ErrorIs(t, err, errStorageBroken)
}
