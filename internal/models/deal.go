package models

import (
	"errors"
	"time"
)

// ErrInvalidDeal is returned when a record fails minimal validity checks
// (no title and no description, or no resolvable URL).
var ErrInvalidDeal = errors.New("deal fails minimal validity")

// Category is the closed set of deal categories.
type Category string

const (
	CategoryBank         Category = "bank"
	CategoryCard         Category = "card"
	CategoryBrokerage    Category = "brokerage"
	CategoryLife         Category = "life"
	CategoryFoodFast     Category = "food_fast"
	CategoryRetailFamily Category = "retail_family"
	CategoryOther        Category = "other"
)

// RedemptionType describes how a deal is claimed.
type RedemptionType string

const (
	RedemptionApp          RedemptionType = "app"
	RedemptionOnline       RedemptionType = "online"
	RedemptionInStore      RedemptionType = "in_store"
	RedemptionSubscription RedemptionType = "subscription"
	RedemptionUnknown      RedemptionType = "unknown"
)

// TriState represents a boolean signal that may be absent. Sources disagree
// on app requirements, so "unknown" is distinct from "false".
type TriState string

const (
	TriTrue    TriState = "true"
	TriFalse   TriState = "false"
	TriUnknown TriState = "unknown"
)

// RawDealRecord is the source-agnostic view of one upstream record after
// envelope unwrapping but before normalization. Field presence varies per
// source; adapters fill what they can and leave the rest zero. Records live
// only within one aggregation cycle.
type RawDealRecord struct {
	Source      string
	SourceID    string
	Title       string
	Description string
	URL         string
	ImageURL    string
	Code        string
	ValueText   string
	ValueUSD    *float64
	Expiry      string
	CNScore     *float64
	FeedIndex   int
}

// NormalizedDeal is the canonical deal entity. Immutable once produced: every
// deal has a non-empty Title or Description, a non-empty URL, and a Source.
type NormalizedDeal struct {
	ID                string         `json:"id" validate:"required"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	URL               string         `json:"url" validate:"required,url"`
	Source            string         `json:"source" validate:"required"`
	Category          Category       `json:"category"`
	PriceOrValueText  string         `json:"price_or_value_text,omitempty"`
	EstimatedValueUSD *float64       `json:"estimated_value_usd,omitempty"`
	RedemptionType    RedemptionType `json:"redemption_type"`
	RequiresApp       TriState       `json:"requires_app"`
	ExpiryDate        *time.Time     `json:"expiry_date,omitempty"`
	ImageURL          string         `json:"image_url,omitempty" validate:"omitempty,url"`
	CNScore           *float64       `json:"chinese_friendliness_score,omitempty"`

	// Provenance is not shown to the UI; it points back at the adapter input
	// for debugging and merge decisions.
	Provenance Provenance `json:"-"`
}

// Provenance records where a normalized deal came from.
type Provenance struct {
	Source    string
	SourceID  string
	FeedIndex int
}

// ScoredDeal is a NormalizedDeal plus its ranking outputs. Recomputed every
// cycle; a new value replaces the old, never mutated in place.
type ScoredDeal struct {
	NormalizedDeal
	Score       float64 `json:"score"`
	IsTop3      bool    `json:"isTop3"`
	LimitedTime bool    `json:"limited_time"`
	CleanTitle  string  `json:"clean_title,omitempty"`
}

// ExpiresWithin reports whether the deal has a known expiry that falls after
// now but within window. Deals without a known expiry never report true.
func (d *NormalizedDeal) ExpiresWithin(now time.Time, window time.Duration) bool {
	if d.ExpiryDate == nil {
		return false
	}
	remaining := d.ExpiryDate.Sub(now)
	return remaining > 0 && remaining <= window
}

// Expired reports whether the deal's expiry is strictly in the past. Absence
// of an expiry means "no known expiry", not "never expires".
func (d *NormalizedDeal) Expired(now time.Time) bool {
	return d.ExpiryDate != nil && d.ExpiryDate.Before(now)
}
