package model

import (
	"strings"
	"time"
)

// MetricSource identifies who produced a metric value.
type MetricSource string

const (
	// SourceManual marks a value entered by an analyst. Manual values
	// outrank auto-derived ones on every merge.
	SourceManual MetricSource = "manual"
	// SourceAuto marks a value derived by an extractor or estimator.
	SourceAuto MetricSource = "auto"
)

// MetricValue is a single business metric with provenance.
type MetricValue struct {
	Value        string       `json:"value"`
	Source       MetricSource `json:"source"`
	SourceDetail string       `json:"source_detail,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// placeholders are value strings that never count as present.
var placeholders = map[string]bool{
	"":        true,
	"unknown": true,
	"n/a":     true,
	"na":      true,
	"none":    true,
	"tbd":     true,
	"-":       true,
	"null":    true,
}

// IsPlaceholder reports whether a raw value string carries no information.
func IsPlaceholder(v string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(v))]
}

// Usable reports whether the value is present and non-placeholder.
func (v *MetricValue) Usable() bool {
	return v != nil && !IsPlaceholder(v.Value)
}

// MetricField names one slot in a MetricSet.
type MetricField string

const (
	MetricARR               MetricField = "arr"
	MetricTAM               MetricField = "tam"
	MetricMarketGrowthRate  MetricField = "market_growth_rate"
	MetricACV               MetricField = "acv"
	MetricYoYGrowth         MetricField = "yoy_growth"
	MetricFundingAmount     MetricField = "funding_amount"
	MetricCommitted         MetricField = "committed"
	MetricValuation         MetricField = "valuation"
	MetricDealTerms         MetricField = "deal_terms"
	MetricLead              MetricField = "lead"
	MetricCurrentRunway     MetricField = "current_runway"
	MetricPostFundingRunway MetricField = "post_funding_runway"
	MetricLocation          MetricField = "location"
)

// MetricFields lists every slot in canonical order.
var MetricFields = []MetricField{
	MetricARR,
	MetricTAM,
	MetricMarketGrowthRate,
	MetricACV,
	MetricYoYGrowth,
	MetricFundingAmount,
	MetricCommitted,
	MetricValuation,
	MetricDealTerms,
	MetricLead,
	MetricCurrentRunway,
	MetricPostFundingRunway,
	MetricLocation,
}

// MetricSet is the canonical per-company metric record. Created fresh per
// scoring run by merging extractor output into whatever the caller persisted
// from prior runs.
type MetricSet struct {
	ARR               *MetricValue `json:"arr,omitempty"`
	TAM               *MetricValue `json:"tam,omitempty"`
	MarketGrowthRate  *MetricValue `json:"market_growth_rate,omitempty"`
	ACV               *MetricValue `json:"acv,omitempty"`
	YoYGrowth         *MetricValue `json:"yoy_growth,omitempty"`
	FundingAmount     *MetricValue `json:"funding_amount,omitempty"`
	Committed         *MetricValue `json:"committed,omitempty"`
	Valuation         *MetricValue `json:"valuation,omitempty"`
	DealTerms         *MetricValue `json:"deal_terms,omitempty"`
	Lead              *MetricValue `json:"lead,omitempty"`
	CurrentRunway     *MetricValue `json:"current_runway,omitempty"`
	PostFundingRunway *MetricValue `json:"post_funding_runway,omitempty"`
	Location          *MetricValue `json:"location,omitempty"`
}

// Get returns the value in the named slot, or nil.
func (m *MetricSet) Get(f MetricField) *MetricValue {
	if m == nil {
		return nil
	}
	switch f {
	case MetricARR:
		return m.ARR
	case MetricTAM:
		return m.TAM
	case MetricMarketGrowthRate:
		return m.MarketGrowthRate
	case MetricACV:
		return m.ACV
	case MetricYoYGrowth:
		return m.YoYGrowth
	case MetricFundingAmount:
		return m.FundingAmount
	case MetricCommitted:
		return m.Committed
	case MetricValuation:
		return m.Valuation
	case MetricDealTerms:
		return m.DealTerms
	case MetricLead:
		return m.Lead
	case MetricCurrentRunway:
		return m.CurrentRunway
	case MetricPostFundingRunway:
		return m.PostFundingRunway
	case MetricLocation:
		return m.Location
	}
	return nil
}

// Set stores a value in the named slot. Unknown fields are ignored.
func (m *MetricSet) Set(f MetricField, v *MetricValue) {
	switch f {
	case MetricARR:
		m.ARR = v
	case MetricTAM:
		m.TAM = v
	case MetricMarketGrowthRate:
		m.MarketGrowthRate = v
	case MetricACV:
		m.ACV = v
	case MetricYoYGrowth:
		m.YoYGrowth = v
	case MetricFundingAmount:
		m.FundingAmount = v
	case MetricCommitted:
		m.Committed = v
	case MetricValuation:
		m.Valuation = v
	case MetricDealTerms:
		m.DealTerms = v
	case MetricLead:
		m.Lead = v
	case MetricCurrentRunway:
		m.CurrentRunway = v
	case MetricPostFundingRunway:
		m.PostFundingRunway = v
	case MetricLocation:
		m.Location = v
	}
}
