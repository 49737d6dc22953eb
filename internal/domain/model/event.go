package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventSource identifies which system emitted a lifecycle/campaign event.
type EventSource string

const (
	// EventSourceMoengage is the marketing-automation channel. Events from
	// it are suppressed for DND customers.
	EventSourceMoengage EventSource = "moengage"
	// EventSourceLOS is the loan-origination system.
	EventSourceLOS EventSource = "los"
	// EventSourceInternal covers engine-internal and admin events.
	EventSourceInternal EventSource = "internal"
)

// Scan implements sql.Scanner interface
func (s *EventSource) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = EventSource(v)
	case []byte:
		*s = EventSource(v)
	default:
		*s = EventSourceInternal
	}
	return nil
}

// Value implements driver.Valuer interface
func (s EventSource) Value() (driver.Value, error) {
	return string(s), nil
}

// EventType names a lifecycle or campaign event.
type EventType string

const (
	EventSMSSent       EventType = "SMS_SENT"
	EventConversion    EventType = "CONVERSION"
	EventAppStageEKYC  EventType = "APP_STAGE_EKYC"
	EventLoanRejected  EventType = "LOAN_REJECTED"
	EventLoanDisbursed EventType = "LOAN_DISBURSED"
	EventLoanExpired   EventType = "LOAN_EXPIRED"
)

// TerminalLOS reports whether the event ends a loan journey. A terminal
// LOS event recorded against an offer expires that offer.
func (t EventType) TerminalLOS() bool {
	switch t {
	case EventLoanRejected, EventLoanDisbursed, EventLoanExpired:
		return true
	}
	return false
}

// Event is an inbound lifecycle/campaign event linked to a customer and
// optionally to one of its offers. Events are immutable once recorded and
// purged after three months.
type Event struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID  uuid.UUID         `gorm:"type:uuid;not null;index:idx_events_customer" json:"customer_id"`
	OfferID     *uuid.UUID        `gorm:"type:uuid;index:idx_events_offer" json:"offer_id,omitempty"`
	EventType   EventType         `gorm:"size:64;not null" json:"event_type"`
	EventSource EventSource       `gorm:"type:event_source;not null" json:"event_source"`
	OccurredAt  time.Time         `gorm:"not null;index:idx_events_occurred_at" json:"occurred_at"`
	Details     datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}
