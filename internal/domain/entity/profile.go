package entity

import (
	"github.com/anuragind003/cdp-offer-engine/internal/domain/model"
	"github.com/google/uuid"
)

// CustomerProfile is the read model returned by GetCustomerProfile.
type CustomerProfile struct {
	Customer     *model.Customer `json:"customer"`
	ActiveOffers []model.Offer   `json:"active_offers"`
	RecentEvents []model.Event   `json:"recent_events"`
}

// RecordEventResult reports what one RecordEvent call did. Dropped is the
// documented non-error outcome for Moengage events against DND customers.
type RecordEventResult struct {
	EventID *uuid.UUID `json:"event_id,omitempty"`
	Dropped bool       `json:"dropped"`
}
