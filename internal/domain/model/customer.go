package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Customer is the canonical record for one real-world person. Identifier
// columns are nullable and globally unique when present; they form the
// deduplication key space, so no two rows may share a non-null value of
// the same kind.
type Customer struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	MobileNumber      *string           `gorm:"size:10;uniqueIndex:uk_customers_mobile_number" json:"mobile_number,omitempty"`
	PANNumber         *string           `gorm:"size:10;uniqueIndex:uk_customers_pan_number" json:"pan_number,omitempty"`
	AadhaarRefNumber  *string           `gorm:"size:32;uniqueIndex:uk_customers_aadhaar_ref_number" json:"aadhaar_ref_number,omitempty"`
	UCIDNumber        *string           `gorm:"size:32;uniqueIndex:uk_customers_ucid_number" json:"ucid_number,omitempty"`
	PrevLoanAppNumber *string           `gorm:"size:64;uniqueIndex:uk_customers_prev_loan_app_number" json:"prev_loan_app_number,omitempty"`
	Segments          pq.StringArray    `gorm:"type:text[]" json:"segments"`
	DND               bool              `gorm:"not null;default:false" json:"dnd"`
	Attributes        datatypes.JSONMap `gorm:"type:jsonb" json:"attributes,omitempty"`
	CreatedAt         time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"default:now()" json:"updated_at"`

	// Relations
	Offers []Offer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"offers,omitempty"`
	Events []Event `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"events,omitempty"`
}

// TableName specifies the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// HasSegment reports whether the customer already carries the segment tag.
func (c *Customer) HasSegment(segment string) bool {
	for _, s := range c.Segments {
		if s == segment {
			return true
		}
	}
	return false
}
