package model

import (
	"time"
)

// CampaignMetric aggregates per-campaign delivery counters. Rows are
// written by extract/reporting runs and fall under the general three-month
// CDP retention.
type CampaignMetric struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignName string    `gorm:"size:128;not null;uniqueIndex:uk_campaign_metrics_name_ref,priority:1" json:"campaign_name"`
	ExtractRef   string    `gorm:"size:32;not null;uniqueIndex:uk_campaign_metrics_name_ref,priority:2" json:"extract_ref"`
	Attempted    int64     `gorm:"not null;default:0" json:"attempted"`
	Sent         int64     `gorm:"not null;default:0" json:"sent"`
	Failed       int64     `gorm:"not null;default:0" json:"failed"`
	Conversions  int64     `gorm:"not null;default:0" json:"conversions"`
	CreatedAt    time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CampaignMetric) TableName() string {
	return "campaign_metrics"
}

// ConversionRate returns conversions over attempted, zero when nothing was
// attempted.
func (m *CampaignMetric) ConversionRate() float64 {
	if m.Attempted == 0 {
		return 0
	}
	return float64(m.Conversions) / float64(m.Attempted)
}
