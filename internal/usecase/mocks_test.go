package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/identity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Sentinels the mock classifier helpers recognize, mirroring how the real
// adapters translate driver errors.
var (
	errCacheMiss     = errors.New("cache miss")
	errDuplicateKey  = errors.New("duplicated key")
	errStorageBroken = errors.New("storage unavailable")
)

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByMobileAndPAN(ctx context.Context, mobile, pan string) (*model.Customer, error) {
	args := m.Called(ctx, mobile, pan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByIdentifier(ctx context.Context, kind identity.IdentifierKind, value string) (*model.Customer, error) {
	args := m.Called(ctx, kind, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *model.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) SetDND(ctx context.Context, id uuid.UUID, dnd bool) error {
	args := m.Called(ctx, id, dnd)
	return args.Error(0)
}

func (m *MockCustomerRepository) PageForExport(ctx context.Context, afterID uuid.UUID, limit int) ([]model.Customer, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) DeleteAgedOut(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) IsDuplicateIdentifier(err error) bool {
	return errors.Is(err, errDuplicateKey)
}

// MockOfferRepository is a mock implementation of OfferRepository
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) ActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Offer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferRepository) ActiveByCustomerLocked(ctx context.Context, customerID uuid.UUID) ([]model.Offer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferRepository) ExistsInSlot(ctx context.Context, customerID uuid.UUID, productType model.ProductType, channel string) (bool, error) {
	args := m.Called(ctx, customerID, productType, channel)
	return args.Bool(0), args.Error(1)
}

func (m *MockOfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) Transition(ctx context.Context, offerID uuid.UUID, from, to model.OfferStatus, reason string) (bool, model.OfferStatus, error) {
	args := m.Called(ctx, offerID, from, to, reason)
	return args.Bool(0), args.Get(1).(model.OfferStatus), args.Error(2)
}

func (m *MockOfferRepository) AttachLoanApplication(ctx context.Context, offerID uuid.UUID, loanAppNumber string) (bool, error) {
	args := m.Called(ctx, offerID, loanAppNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOfferRepository) LapsedActiveIDs(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockOfferRepository) HistoryCountsSince(ctx context.Context, offerIDs []uuid.UUID, since time.Time) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, offerIDs, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

func (m *MockOfferRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOfferRepository) DeleteHistoryOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *model.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) RecentByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]model.Event, error) {
	args := m.Called(ctx, customerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *MockEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

// MockCampaignMetricRepository is a mock implementation of CampaignMetricRepository
type MockCampaignMetricRepository struct {
	mock.Mock
}

func (m *MockCampaignMetricRepository) IncrementAttempted(ctx context.Context, campaignName, extractRef string, delta int64) error {
	args := m.Called(ctx, campaignName, extractRef, delta)
	return args.Error(0)
}

func (m *MockCampaignMetricRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).(int64), args.Error(1)
}

// MockCacheRepository is a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheRepository) IsNotFound(err error) bool {
	return errors.Is(err, errCacheMiss)
}

// fakeTxManager runs fn against the test's repository bundle, standing in
// for a real transaction scope.
type fakeTxManager struct {
	repos *domainRepo.Repositories
}

func (f *fakeTxManager) Transaction(ctx context.Context, fn func(repos *domainRepo.Repositories) error) error {
	return fn(f.repos)
}

type testMocks struct {
	customers *MockCustomerRepository
	offers    *MockOfferRepository
	events    *MockEventRepository
	metrics   *MockCampaignMetricRepository
	cache     *MockCacheRepository
	repos     *domainRepo.Repositories
	tx        *fakeTxManager
}

func newTestMocks() *testMocks {
	customers := new(MockCustomerRepository)
	offers := new(MockOfferRepository)
	events := new(MockEventRepository)
	metrics := new(MockCampaignMetricRepository)
	repos := domainRepo.NewRepositories(customers, offers, events, metrics)

	return &testMocks{
		customers: customers,
		offers:    offers,
		events:    events,
		metrics:   metrics,
		cache:     new(MockCacheRepository),
		repos:     repos,
		tx:        &fakeTxManager{repos: repos},
	}
}
