package model

import (
	"time"

	"github.com/google/uuid"
)

// OfferHistory records one status change of an offer. Rows are retained
// six months from the change, on a clock independent of the offer itself.
type OfferHistory struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID         uuid.UUID   `gorm:"type:uuid;not null;index:idx_offer_histories_offer" json:"offer_id"`
	OldStatus       OfferStatus `gorm:"type:offer_status;not null" json:"old_status"`
	NewStatus       OfferStatus `gorm:"type:offer_status;not null" json:"new_status"`
	ChangeReason    string      `gorm:"size:255;not null" json:"change_reason"`
	StatusChangedAt time.Time   `gorm:"not null;index:idx_offer_histories_changed_at" json:"status_changed_at"`
}

// TableName specifies the table name for GORM
func (OfferHistory) TableName() string {
	return "offer_histories"
}
