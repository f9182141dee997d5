package calibrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/diligence-cli/internal/model"
)

func marketCategory() []model.CategoryScore {
	return []model.CategoryScore{
		{Category: "Market Opportunity", Weight: 30, Criteria: []model.CriterionScore{
			{Name: "TAM Credibility", Score: 70, Confidence: 70},
			{Name: "Market Growth", Score: 50, Confidence: 80},
		}},
		{Category: "Team", Weight: 70, Criteria: []model.CriterionScore{
			{Name: "Founder Experience", Score: 60, Confidence: 60},
		}},
	}
}

func intelWithThreat(threat float64) Context {
	return Context{Intel: &model.ExternalMarketIntelligence{CompetitiveThreat: threat}}
}

func TestThreatPenalty(t *testing.T) {
	tests := []struct {
		name   string
		threat float64
		want   float64
	}{
		{"severe threat", 85, 62},
		{"high threat", 70, 66},
		{"moderate threat untouched", 50, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats := marketCategory()
			threatPenaltyPass(cats, intelWithThreat(tt.threat))

			assert.InDelta(t, tt.want, cats[0].Criteria[0].Score, 0.01)
			// Non-market categories are never penalized.
			assert.InDelta(t, 60, cats[1].Criteria[0].Score, 0.01)
		})
	}
}

func TestThreatPenaltyAppliedOnce(t *testing.T) {
	cats := marketCategory()
	c := intelWithThreat(85)

	threatPenaltyPass(cats, c)
	threatPenaltyPass(cats, c)

	assert.InDelta(t, 62, cats[0].Criteria[0].Score, 0.01)
}

func TestTamComparisonConfidenceBounds(t *testing.T) {
	tests := []struct {
		name       string
		tam        model.TamEstimate
		confidence float64
		want       float64
	}{
		{
			name:       "both sides floor low confidence",
			tam:        model.TamEstimate{CompanyClaim: "$12B", IndependentTAM: "$10B"},
			confidence: 30,
			want:       60,
		},
		{
			name:       "missing independent caps confidence",
			tam:        model.TamEstimate{CompanyClaim: "$12B", IndependentTAM: "unknown"},
			confidence: 80,
			want:       50,
		},
		{
			name:       "large discrepancy caps hardest",
			tam:        model.TamEstimate{CompanyClaim: "$60B", IndependentTAM: "$10B"},
			confidence: 80,
			want:       45,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats := marketCategory()
			cats[0].Criteria[0].Confidence = tt.confidence
			tamComparisonPass(cats, Context{Intel: &model.ExternalMarketIntelligence{TAM: tt.tam}})
			assert.InDelta(t, tt.want, cats[0].Criteria[0].Confidence, 0.01)
		})
	}
}

func TestTamDiscrepancyRecordsMissingData(t *testing.T) {
	cats := marketCategory()
	c := Context{Intel: &model.ExternalMarketIntelligence{TAM: model.TamEstimate{
		CompanyClaim: "$60B", IndependentTAM: "$10B", Alignment: model.TamOverstated,
	}}}

	tamComparisonPass(cats, c)
	tamComparisonPass(cats, c)

	cr := cats[0].Criteria[0]
	require.Len(t, cr.MissingData, 1, "missing-data item recorded once")
	assert.Contains(t, cr.Reasoning, "founder claim $60B vs independent estimate $10B")
}

func TestMarketGrowthBanding(t *testing.T) {
	tests := []struct {
		name string
		band string
		want float64
	}{
		{"high band moves halfway to 75", "high", 62.5},
		{"moderate band moves halfway to 60", "moderate", 55},
		{"low band moves halfway to 40", "low", 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats := marketCategory()
			growthPass(t, cats, tt.band, 60)
			assert.InDelta(t, tt.want, cats[0].Criteria[1].Score, 0.01)
		})
	}
}

func growthPass(t *testing.T, cats []model.CategoryScore, band string, confidence float64) {
	t.Helper()
	marketGrowthPass(cats, Context{Intel: &model.ExternalMarketIntelligence{
		Growth: model.MarketGrowthEstimate{
			EstimatedCAGR: "12%", GrowthBand: band, Confidence: confidence,
			Method: model.MethodTextExtraction,
		},
	}})
}

func TestMarketGrowthUnknownBandCapsConfidence(t *testing.T) {
	cats := marketCategory()
	growthPass(t, cats, "unknown", 0)

	assert.InDelta(t, 50, cats[0].Criteria[1].Score, 0.01, "score untouched without a band")
	assert.InDelta(t, 50, cats[0].Criteria[1].Confidence, 0.01)
}

func TestMarketGrowthConfidenceBoundedByEvidence(t *testing.T) {
	cats := marketCategory()
	cats[0].Criteria[1].Confidence = 95
	growthPass(t, cats, "high", 40)

	// Bound is growth confidence plus slack, under the global ceiling.
	assert.InDelta(t, 65, cats[0].Criteria[1].Confidence, 0.01)
}

func TestMarketGrowthSkipsManualOverride(t *testing.T) {
	cats := marketCategory()
	cats[0].Criteria[1].ManualOverride = ptrFloat64(90)
	growthPass(t, cats, "high", 60)

	assert.InDelta(t, 50, cats[0].Criteria[1].Score, 0.01)
}
