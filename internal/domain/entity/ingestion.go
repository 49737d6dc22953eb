package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IngestionPayload is one validated record handed to the engine by an
// origination channel. Identifier fields arrive raw; the engine
// normalizes them before resolution. At least one identifier must survive
// normalization.
type IngestionPayload struct {
	MobileNumber      string `json:"mobile_number"`
	PANNumber         string `json:"pan_number"`
	AadhaarRefNumber  string `json:"aadhaar_ref_number"`
	UCIDNumber        string `json:"ucid_number"`
	PrevLoanAppNumber string `json:"prev_loan_app_number"`

	Segments   []string               `json:"segments"`
	Attributes map[string]interface{} `json:"attributes"`
	DND        *bool                  `json:"dnd,omitempty"`

	Offer CandidateOffer `json:"offer" validate:"required"`
}

// CandidateOffer carries the offer attributes of an ingestion payload
// before classification decides its fate.
type CandidateOffer struct {
	ProductType  string          `json:"product_type" validate:"required,oneof=loyalty preapproved e_aggregator insta top_up employee_loan prospect"`
	Channel      string          `json:"channel" validate:"required,max=32"`
	Propensity   string          `json:"propensity" validate:"omitempty,max=16"`
	OfferAmount  decimal.Decimal `json:"offer_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	StartDate    time.Time       `json:"offer_start_date" validate:"required"`
	EndDate      time.Time       `json:"offer_end_date" validate:"required,gtefield=StartDate"`
}

// OfferAction is the classifier's verdict for a candidate offer.
type OfferAction string

const (
	// ActionCreateNew persists the candidate as a new active offer.
	ActionCreateNew OfferAction = "create_new"
	// ActionRejectDuplicate drops a candidate identical to an existing
	// active offer. No new row, no status change.
	ActionRejectDuplicate OfferAction = "reject_duplicate"
	// ActionSupersedeExisting persists the candidate and marks the losing
	// active offer inactive in the same transaction.
	ActionSupersedeExisting OfferAction = "supersede_existing"
)

// IngestResult reports what one IngestOffer call did.
type IngestResult struct {
	CustomerID      uuid.UUID   `json:"customer_id"`
	CustomerCreated bool        `json:"customer_created"`
	OfferID         *uuid.UUID  `json:"offer_id,omitempty"`
	OfferType       string      `json:"offer_type,omitempty"`
	Action          OfferAction `json:"action"`
	Message         string      `json:"message"`
}
