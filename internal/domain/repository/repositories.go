package repository

import "context"

// Repositories bundles the storage interfaces the usecases depend on.
// TxManager hands out a transaction-scoped bundle so multi-table flows
// commit or roll back together.
type Repositories struct {
	Customer       CustomerRepository
	Offer          OfferRepository
	Event          EventRepository
	CampaignMetric CampaignMetricRepository
}

// NewRepositories bundles the given repository implementations.
func NewRepositories(
	customerRepo CustomerRepository,
	offerRepo OfferRepository,
	eventRepo EventRepository,
	campaignMetricRepo CampaignMetricRepository,
) *Repositories {
	return &Repositories{
		Customer:       customerRepo,
		Offer:          offerRepo,
		Event:          eventRepo,
		CampaignMetric: campaignMetricRepo,
	}
}

// TxManager runs fn inside a single database transaction, passing a
// Repositories bundle bound to that transaction. Returning an error
// rolls everything back.
type TxManager interface {
	Transaction(ctx context.Context, fn func(repos *Repositories) error) error
}
