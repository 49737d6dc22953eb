package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferStatus represents the lifecycle state of an offer
type OfferStatus string

const (
	// OfferStatusActive is the only entry state; offers are created active.
	OfferStatusActive OfferStatus = "active"
	// OfferStatusInactive marks an offer superseded by precedence. Terminal.
	OfferStatusInactive OfferStatus = "inactive"
	// OfferStatusExpired marks an offer lapsed by time or a terminal loan
	// journey outcome. Terminal.
	OfferStatusExpired OfferStatus = "expired"
)

// Scan implements sql.Scanner interface
func (s *OfferStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = OfferStatus(v)
	case []byte:
		*s = OfferStatus(v)
	default:
		*s = OfferStatusInactive
	}
	return nil
}

// Value implements driver.Valuer interface
func (s OfferStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Terminal reports whether no further transitions are allowed from s.
func (s OfferStatus) Terminal() bool {
	return s == OfferStatusInactive || s == OfferStatusExpired
}

// OfferType classifies how an incoming offer relates to what the customer
// already holds.
type OfferType string

const (
	// OfferTypeFresh is the first offer for a product/channel slot.
	OfferTypeFresh OfferType = "fresh"
	// OfferTypeEnrich adds propensity/amount data to the same offer identity.
	OfferTypeEnrich OfferType = "enrich"
	// OfferTypeNewOld re-issues materially the same offer to the customer.
	OfferTypeNewOld OfferType = "new_old"
	// OfferTypeNewNew targets the customer with a different product.
	OfferTypeNewNew OfferType = "new_new"
)

// Scan implements sql.Scanner interface
func (t *OfferType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = OfferType(v)
	case []byte:
		*t = OfferType(v)
	default:
		*t = OfferTypeFresh
	}
	return nil
}

// Value implements driver.Valuer interface
func (t OfferType) Value() (driver.Value, error) {
	return string(t), nil
}

// ProductType identifies the loan product an offer proposes. Precedence
// between products competing for the same customer/channel slot is decided
// by the classifier's configurable priority order.
type ProductType string

const (
	ProductLoyalty      ProductType = "loyalty"
	ProductPreapproved  ProductType = "preapproved"
	ProductEAggregator  ProductType = "e_aggregator"
	ProductInsta        ProductType = "insta"
	ProductTopUp        ProductType = "top_up"
	ProductEmployeeLoan ProductType = "employee_loan"
	ProductProspect     ProductType = "prospect"
)

// Offer is a specific loan product proposal extended to a customer. At most
// one offer per (customer, product, channel) may be active at any time.
type Offer struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_offers_customer" json:"customer_id"`
	ProductType           ProductType     `gorm:"type:product_type;not null" json:"product_type"`
	Channel               string          `gorm:"size:32;not null" json:"channel"`
	OfferType             OfferType       `gorm:"type:offer_type;not null" json:"offer_type"`
	OfferStatus           OfferStatus     `gorm:"type:offer_status;not null;default:'active';index:idx_offers_status" json:"offer_status"`
	Propensity            string          `gorm:"size:16" json:"propensity,omitempty"`
	OfferAmount           decimal.Decimal `gorm:"type:decimal(15,2)" json:"offer_amount"`
	InterestRate          decimal.Decimal `gorm:"type:decimal(5,2)" json:"interest_rate"`
	OfferStartDate        time.Time       `gorm:"not null" json:"offer_start_date"`
	OfferEndDate          time.Time       `gorm:"not null" json:"offer_end_date"`
	LoanApplicationNumber *string         `gorm:"size:64;index:idx_offers_loan_app_number" json:"loan_application_number,omitempty"`
	AttributionChannel    string          `gorm:"size:64" json:"attribution_channel,omitempty"`
	CreatedAt             time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"default:now()" json:"updated_at"`

	// Relations
	History []OfferHistory `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
}

// TableName specifies the table name for GORM
func (Offer) TableName() string {
	return "offers"
}

// JourneyStarted reports whether a loan application has been attached.
func (o *Offer) JourneyStarted() bool {
	return o.LoanApplicationNumber != nil && *o.LoanApplicationNumber != ""
}

// SameSlot reports whether the other offer competes for the same
// product/channel slot of the same customer.
func (o *Offer) SameSlot(productType ProductType, channel string) bool {
	return o.ProductType == productType && o.Channel == channel
}
