package config

// DefaultProductPriority orders loan products from highest precedence to
// lowest. The ordering is deployment-configurable; this is the standard
// ranking used when the yaml does not override it.
var DefaultProductPriority = []string{
	"loyalty",
	"preapproved",
	"e_aggregator",
	"insta",
	"top_up",
	"employee_loan",
	"prospect",
}

// EngineConfig holds the domain knobs of the resolution and lifecycle engine
type EngineConfig struct {
	// ProductPriority lists product types from highest precedence to lowest.
	ProductPriority []string `yaml:"product_priority"`

	// LockStripes sizes the keyed mutex guarding concurrent find-or-create
	// on the same identifier set.
	LockStripes int `yaml:"lock_stripes"`

	// ProfileRecentEvents caps how many events a profile lookup returns.
	ProfileRecentEvents int `yaml:"profile_recent_events"`

	Retention RetentionConfig `yaml:"retention"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Export    ExportConfig    `yaml:"export"`
}

// RetentionConfig holds the data-age policies enforced by the purger
type RetentionConfig struct {
	// OfferHistoryMonths is the retention window for offer status history.
	OfferHistoryMonths int `yaml:"offer_history_months"`

	// CDPMonths is the general retention window for events, campaign
	// metrics, terminal offers and offer-less customers.
	CDPMonths int `yaml:"cdp_months"`
}

// SweepConfig bounds a single purge pass
type SweepConfig struct {
	// BatchSize caps rows deleted per transaction.
	BatchSize int `yaml:"batch_size"`
}

// ExportConfig bounds the campaign extract reader
type ExportConfig struct {
	// PageSize caps customers fetched per export page.
	PageSize int `yaml:"page_size"`
}

func (c *EngineConfig) applyDefaults() {
	if len(c.ProductPriority) == 0 {
		c.ProductPriority = DefaultProductPriority
	}
	if c.LockStripes <= 0 {
		c.LockStripes = 64
	}
	if c.ProfileRecentEvents <= 0 {
		c.ProfileRecentEvents = 20
	}
	if c.Retention.OfferHistoryMonths <= 0 {
		c.Retention.OfferHistoryMonths = 6
	}
	if c.Retention.CDPMonths <= 0 {
		c.Retention.CDPMonths = 3
	}
	if c.Sweep.BatchSize <= 0 {
		c.Sweep.BatchSize = 500
	}
	if c.Export.PageSize <= 0 {
		c.Export.PageSize = 500
	}
}
