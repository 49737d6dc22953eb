package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/domain/identity"
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// customerRepository implements the CustomerRepository interface
type customerRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCustomerRepository creates a new customer repository instance
func NewCustomerRepository(db *gorm.DB, logger *zap.Logger) domainRepo.CustomerRepository {
	return &customerRepository{
		db:     db,
		logger: logger,
	}
}

// identifierColumn maps an identifier kind to its customers column.
func identifierColumn(kind identity.IdentifierKind) (string, bool) {
	switch kind {
	case identity.KindMobile:
		return "mobile_number", true
	case identity.KindPAN:
		return "pan_number", true
	case identity.KindAadhaarRef:
		return "aadhaar_ref_number", true
	case identity.KindUCID:
		return "ucid_number", true
	case identity.KindPrevLoanApp:
		return "prev_loan_app_number", true
	}
	return "", false
}

// FindByID retrieves a customer by primary key
func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&customer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get customer",
			zap.String("customer_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &customer, nil
}

// FindByMobileAndPAN retrieves the customer matching both identifiers
func (r *customerRepository) FindByMobileAndPAN(ctx context.Context, mobile, pan string) (*model.Customer, error) {
	var customer model.Customer

	err := r.db.WithContext(ctx).
		Where("mobile_number = ? AND pan_number = ?", mobile, pan).
		First(&customer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get customer by mobile and PAN",
			zap.Error(err))
		return nil, fmt.Errorf("failed to get customer by mobile and pan: %w", err)
	}

	return &customer, nil
}

// FindByIdentifier retrieves the customer holding one normalized identifier value
func (r *customerRepository) FindByIdentifier(ctx context.Context, kind identity.IdentifierKind, value string) (*model.Customer, error) {
	column, ok := identifierColumn(kind)
	if !ok {
		return nil, fmt.Errorf("unknown identifier kind: %s", kind)
	}

	var customer model.Customer
	err := r.db.WithContext(ctx).
		Where(column+" = ?", value).
		First(&customer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get customer by identifier",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get customer by %s: %w", kind, err)
	}

	return &customer, nil
}

// Create inserts a new customer row
func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(customer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.logger.Warn("Customer identifier already taken",
				zap.String("customer_id", customer.ID.String()))
			return fmt.Errorf("identifier already taken: %w", err)
		}
		r.logger.Error("Failed to create customer",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create customer: %w", err)
	}

	r.logger.Info("Customer created",
		zap.String("customer_id", customer.ID.String()))

	return nil
}

// Update persists merged identifiers, segments, attributes and DND
func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(customer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.logger.Warn("Customer update collided on identifier",
				zap.String("customer_id", customer.ID.String()))
			return fmt.Errorf("identifier already taken: %w", err)
		}
		r.logger.Error("Failed to update customer",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return nil
}

// SetDND flips the do-not-disturb flag of one customer
func (r *customerRepository) SetDND(ctx context.Context, id uuid.UUID, dnd bool) error {
	err := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Where("id = ?", id).
		Update("dnd", dnd).Error

	if err != nil {
		r.logger.Error("Failed to set DND flag",
			zap.String("customer_id", id.String()),
			zap.Bool("dnd", dnd),
			zap.Error(err))
		return fmt.Errorf("failed to set dnd flag: %w", err)
	}

	return nil
}

// PageForExport returns the next id-ordered page of non-DND customers with
// active offers preloaded
func (r *customerRepository) PageForExport(ctx context.Context, afterID uuid.UUID, limit int) ([]model.Customer, error) {
	var customers []model.Customer

	query := r.db.WithContext(ctx).
		Where("dnd = ?", false).
		Order("id ASC").
		Limit(limit).
		Preload("Offers", "offer_status = ?", model.OfferStatusActive)

	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}

	err := query.Find(&customers).Error
	if err != nil {
		r.logger.Error("Failed to page customers for export",
			zap.String("after_id", afterID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to page customers for export: %w", err)
	}

	return customers, nil
}

// DeleteAgedOut removes customers past the cutoff that hold no remaining
// offers. Events cascade with the customer row.
func (r *customerRepository) DeleteAgedOut(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	sub := r.db.Model(&model.Customer{}).
		Select("id").
		Where("updated_at <= ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM offers WHERE offers.customer_id = customers.id)").
		Limit(limit)

	res := r.db.WithContext(ctx).
		Where("id IN (?)", sub).
		Delete(&model.Customer{})

	if res.Error != nil {
		r.logger.Error("Failed to delete aged-out customers",
			zap.Time("cutoff", cutoff),
			zap.Error(res.Error))
		return 0, fmt.Errorf("failed to delete aged-out customers: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// IsDuplicateIdentifier reports whether err came from a unique violation on
// an identifier column. Relies on the connection being opened with
// TranslateError enabled.
func (r *customerRepository) IsDuplicateIdentifier(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
