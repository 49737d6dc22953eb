package database

import (
	"context"

	adapterRepo "github.com/anuragind003/cdp-offer-engine/internal/adapter/repository"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRepositories wires the GORM-backed repository implementations.
func NewRepositories(db *gorm.DB, logger *zap.Logger) *domainRepo.Repositories {
	return domainRepo.NewRepositories(
		adapterRepo.NewCustomerRepository(db, logger),
		adapterRepo.NewOfferRepository(db, logger),
		adapterRepo.NewEventRepository(db, logger),
		adapterRepo.NewCampaignMetricRepository(db, logger),
	)
}

// txManager implements the TxManager interface on a GORM connection
type txManager struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTxManager creates a transaction manager over the given connection.
func NewTxManager(db *gorm.DB, logger *zap.Logger) domainRepo.TxManager {
	return &txManager{
		db:     db,
		logger: logger,
	}
}

// Transaction runs fn against repositories bound to one database transaction
func (m *txManager) Transaction(ctx context.Context, fn func(repos *domainRepo.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx, m.logger))
	})
}
