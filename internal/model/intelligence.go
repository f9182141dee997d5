package model

// TamAlignment classifies the founder's TAM claim against the independent
// estimate.
type TamAlignment string

const (
	TamAligned         TamAlignment = "aligned"
	TamSomewhatAligned TamAlignment = "somewhat_aligned"
	TamOverstated      TamAlignment = "overstated"
	TamUnderstated     TamAlignment = "understated"
	TamUnknown         TamAlignment = "unknown"
)

// EstimationMethod records which fallback tier produced an estimate.
type EstimationMethod string

const (
	MethodReasoningService EstimationMethod = "reasoning_service"
	MethodTextExtraction   EstimationMethod = "text_extraction"
	MethodSectorHeuristic  EstimationMethod = "sector_heuristic"
	MethodNone             EstimationMethod = ""
)

// TamEstimate is an independently derived market size estimate plus the
// comparison against the company's own claim.
type TamEstimate struct {
	IndependentTAM string           `json:"independent_tam"`
	IndependentSAM string           `json:"independent_sam,omitempty"`
	IndependentSOM string           `json:"independent_som,omitempty"`
	CompanyClaim   string           `json:"company_claim,omitempty"`
	Alignment      TamAlignment     `json:"alignment"`
	Confidence     float64          `json:"confidence"`
	DeltaSummary   string           `json:"delta_summary,omitempty"`
	Assumptions    []string         `json:"assumptions,omitempty"`
	Method         EstimationMethod `json:"method,omitempty"`
}

// MarketGrowthEstimate is an evidence-backed market growth estimate.
type MarketGrowthEstimate struct {
	EstimatedCAGR string           `json:"estimated_cagr"`
	GrowthBand    string           `json:"growth_band"` // high | moderate | low | unknown
	Confidence    float64          `json:"confidence"`
	Evidence      []string         `json:"evidence,omitempty"`
	Method        EstimationMethod `json:"method,omitempty"`
}

// Competitor is one identified competitor.
type Competitor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ExternalMarketIntelligence is the independent market view derived fresh on
// every scoring run. Fields left "unknown" by one estimation tier may be
// filled by a later heuristic tier.
type ExternalMarketIntelligence struct {
	TAM               TamEstimate          `json:"tam"`
	Growth            MarketGrowthEstimate `json:"growth"`
	Competitors       []Competitor         `json:"competitors,omitempty"`
	CompetitiveThreat float64              `json:"competitive_threat"`
}
