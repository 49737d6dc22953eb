package database

import (
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// Create extensions first
	logger.Info("Creating PostgreSQL extensions...")
	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Create custom types BEFORE auto-migrate
	logger.Info("Creating custom PostgreSQL types...")
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	// Auto-migrate all models
	logger.Info("Running GORM auto-migrations...")
	err := db.AutoMigrate(
		&model.Customer{},
		&model.Offer{},
		&model.OfferHistory{},
		&model.Event{},
		&model.CampaignMetric{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	// Create custom indexes and constraints
	logger.Info("Creating custom indexes and constraints...")
	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}
	if err := createForeignKeys(db); err != nil {
		logger.Error("Failed to create foreign keys", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return err
	}
	return nil
}

// createCustomTypes creates custom PostgreSQL types
func createCustomTypes(db *gorm.DB) error {
	var exists bool

	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'product_type')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE product_type AS ENUM ('loyalty', 'preapproved', 'e_aggregator', 'insta', 'top_up', 'employee_loan', 'prospect')`).Error; err != nil {
			return err
		}
	}

	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'offer_type')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE offer_type AS ENUM ('fresh', 'enrich', 'new_old', 'new_new')`).Error; err != nil {
			return err
		}
	}

	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'offer_status')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE offer_status AS ENUM ('active', 'inactive', 'expired')`).Error; err != nil {
			return err
		}
	}

	db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'event_source')`).Scan(&exists)
	if !exists {
		if err := db.Exec(`CREATE TYPE event_source AS ENUM ('moengage', 'los', 'internal')`).Error; err != nil {
			return err
		}
	}

	return nil
}

// createCustomIndexes creates indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// At most one active offer per customer/product/channel slot
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_offer_per_slot ON offers (customer_id, product_type, channel) WHERE offer_status = 'active'`).Error; err != nil {
		return err
	}

	// Expiry sweep scans active offers by end date
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_offers_active_end_date ON offers (offer_end_date) WHERE offer_status = 'active' AND loan_application_number IS NULL`).Error; err != nil {
		return err
	}

	// Retention sweep scans terminal offers by last update
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_offers_terminal_updated ON offers (updated_at) WHERE offer_status IN ('inactive', 'expired')`).Error; err != nil {
		return err
	}

	return nil
}

// createForeignKeys creates the ownership constraints. Auto-migration runs
// with foreign keys disabled, so the cascades the purger relies on are
// declared here.
func createForeignKeys(db *gorm.DB) error {
	type fk struct {
		name string
		ddl  string
	}

	fks := []fk{
		{
			name: "fk_offers_customer",
			ddl:  `ALTER TABLE offers ADD CONSTRAINT fk_offers_customer FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE`,
		},
		{
			name: "fk_offer_histories_offer",
			ddl:  `ALTER TABLE offer_histories ADD CONSTRAINT fk_offer_histories_offer FOREIGN KEY (offer_id) REFERENCES offers(id) ON DELETE CASCADE`,
		},
		{
			name: "fk_events_customer",
			ddl:  `ALTER TABLE events ADD CONSTRAINT fk_events_customer FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE`,
		},
		{
			name: "fk_events_offer",
			ddl:  `ALTER TABLE events ADD CONSTRAINT fk_events_offer FOREIGN KEY (offer_id) REFERENCES offers(id) ON DELETE SET NULL`,
		},
	}

	for _, f := range fks {
		var exists bool
		db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = ?)`, f.name).Scan(&exists)
		if exists {
			continue
		}
		if err := db.Exec(f.ddl).Error; err != nil {
			return err
		}
	}

	return nil
}
