package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExportRow is one campaign-extract row: a reachable (non-DND) customer
// with its single current active offer, when one exists.
type ExportRow struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	MobileNumber string    `json:"mobile_number,omitempty"`
	Segments     []string  `json:"segments"`

	OfferID        *uuid.UUID      `json:"offer_id,omitempty"`
	ProductType    string          `json:"product_type,omitempty"`
	Channel        string          `json:"channel,omitempty"`
	Propensity     string          `json:"propensity,omitempty"`
	OfferAmount    decimal.Decimal `json:"offer_amount"`
	OfferStartDate *time.Time      `json:"offer_start_date,omitempty"`
	OfferEndDate   *time.Time      `json:"offer_end_date,omitempty"`

	// RecentStatusChanges counts OfferHistory rows for the offer within
	// the six-month export window.
	RecentStatusChanges int64  `json:"recent_status_changes"`
	ExtractRef          string `json:"extract_ref"`
}

// ExtractCSVHeader is the column order of a campaign extract file.
var ExtractCSVHeader = []string{
	"customer_id",
	"mobile_number",
	"segments",
	"offer_id",
	"product_type",
	"channel",
	"propensity",
	"offer_amount",
	"offer_start_date",
	"offer_end_date",
	"recent_status_changes",
	"extract_ref",
}

// CSVRecord flattens the row into ExtractCSVHeader column order. Offer
// columns stay empty for customers exported without an active offer.
func (r ExportRow) CSVRecord() []string {
	record := []string{
		r.CustomerID.String(),
		r.MobileNumber,
		strings.Join(r.Segments, "|"),
		"", "", "", "", "", "", "",
		strconv.FormatInt(r.RecentStatusChanges, 10),
		r.ExtractRef,
	}

	if r.OfferID != nil {
		record[3] = r.OfferID.String()
		record[4] = r.ProductType
		record[5] = r.Channel
		record[6] = r.Propensity
		record[7] = r.OfferAmount.String()
		if r.OfferStartDate != nil {
			record[8] = r.OfferStartDate.Format("2006-01-02")
		}
		if r.OfferEndDate != nil {
			record[9] = r.OfferEndDate.Format("2006-01-02")
		}
	}

	return record
}

// SweepCounts reports what one retention sweep removed or transitioned.
// Counters cover committed batches even when a later batch failed.
type SweepCounts struct {
	OffersExpired   int64 `json:"offers_expired"`
	HistoriesPurged int64 `json:"histories_purged"`
	EventsPurged    int64 `json:"events_purged"`
	MetricsPurged   int64 `json:"metrics_purged"`
	OffersPurged    int64 `json:"offers_purged"`
	CustomersPurged int64 `json:"customers_purged"`
}

// Total sums every purged row count (expiry transitions excluded).
func (c SweepCounts) Total() int64 {
	return c.HistoriesPurged + c.EventsPurged + c.MetricsPurged + c.OffersPurged + c.CustomersPurged
}
