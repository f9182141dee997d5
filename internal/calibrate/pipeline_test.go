package calibrate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/diligence-cli/internal/model"
)

func ptrFloat64(v float64) *float64 { return &v }

func fullInput() []model.CategoryScore {
	return []model.CategoryScore{
		{Category: "Market Opportunity", Weight: 30, Criteria: []model.CriterionScore{
			{Name: "TAM Credibility", Score: 70, Confidence: 70, EvidenceStatus: model.EvidenceSupported,
				Reasoning: "Founder deck claims a large market.", Evidence: []string{"pitch deck p.4"}},
			{Name: "Market Growth", Score: 50, Confidence: 80, EvidenceStatus: model.EvidenceSupported,
				Evidence: []string{"industry report"}},
		}},
		{Category: "Team & Execution", Weight: 40, Criteria: []model.CriterionScore{
			{Name: "Founder Experience", Score: 60, Confidence: 60, EvidenceStatus: model.EvidenceSupported,
				Evidence: []string{"LinkedIn history"}},
			{Name: "Role Coverage", Score: 55, Confidence: 50, EvidenceStatus: model.EvidenceWeaklySupported,
				Evidence: []string{model.NoEvidenceSentinel}, ManualOverride: ptrFloat64(65)},
		}},
		{Category: "Traction", Weight: 30, Criteria: []model.CriterionScore{
			{Name: "Customer Adoption", Score: 30, Confidence: 40, EvidenceStatus: model.EvidenceUnknown,
				Evidence: []string{model.NoEvidenceSentinel}},
			{Name: "Funding History", Score: 50, Confidence: 55, EvidenceStatus: model.EvidenceWeaklySupported,
				Reasoning: "Raised $2.5M at a $20M valuation.", Evidence: []string{model.NoEvidenceSentinel}},
		}},
	}
}

func fullContext() Context {
	return Context{
		Intel: &model.ExternalMarketIntelligence{
			TAM: model.TamEstimate{
				CompanyClaim:   "$50B",
				IndependentTAM: "$8B",
				Alignment:      model.TamOverstated,
				Confidence:     70,
			},
			Growth: model.MarketGrowthEstimate{
				EstimatedCAGR: "14%",
				GrowthBand:    "high",
				Confidence:    60,
				Method:        model.MethodTextExtraction,
			},
			CompetitiveThreat: 85,
		},
		Team: &model.TeamResearch{Founders: []model.Founder{
			{Name: "Dana Reeve", Role: "CEO", PriorExits: 1, RoleMatch: true},
		}},
		Portfolio: &model.PortfolioSynergyResearch{Overlaps: []model.PortfolioOverlap{
			{Company: "PortCo A", Type: model.OverlapSimilarSpace},
			{Company: "PortCo B", Type: model.OverlapComplementary},
		}},
		Necessity: &model.ProblemNecessityResearch{
			Classification: model.NecessityVaccine,
			Signals:        []string{"compliance deadline"},
		},
		OverrideStats:   []OverrideStat{{Category: "Team & Execution", AvgDelta: 10, SampleCount: 10}},
		RaiseEvidence:   false,
		TractionSignals: []string{"Pilot with Acme Corp", "LOI from Globex"},
		HasARR:          false,
	}
}

func TestRunDoesNotMutateInput(t *testing.T) {
	in := fullInput()
	want := fullInput()

	_ = Run(in, fullContext())

	assert.Equal(t, want, in)
}

func TestRunIsIdempotent(t *testing.T) {
	once := Run(fullInput(), fullContext())
	twice := Run(once, fullContext())

	assert.Equal(t, once, twice)
}

func TestRunRecomputesCategoryScores(t *testing.T) {
	out := Run(fullInput(), fullContext())
	require.Len(t, out, 3)

	for _, cat := range out {
		sum := 0.0
		for _, cr := range cat.Criteria {
			sum += cr.EffectiveScore()
		}
		want := math.Round(sum / float64(len(cat.Criteria)))
		assert.InDelta(t, want, cat.Score, 0.01, cat.Category)
		assert.InDelta(t, cat.Score*cat.Weight/100, cat.WeightedScore, 0.01, cat.Category)
	}
}

func TestRunPreservesManualOverrides(t *testing.T) {
	out := Run(fullInput(), fullContext())

	cr := out[1].Criteria[1]
	require.NotNil(t, cr.ManualOverride)
	assert.InDelta(t, 65, *cr.ManualOverride, 0.01)
}

func TestRunEmptyContextIsRecomputeOnly(t *testing.T) {
	in := fullInput()
	out := Run(in, Context{RaiseEvidence: true})

	require.Len(t, out, len(in))
	for i, cat := range out {
		for j, cr := range cat.Criteria {
			assert.InDelta(t, in[i].Criteria[j].Score, cr.Score, 0.01)
			assert.Equal(t, in[i].Criteria[j].Reasoning, cr.Reasoning)
		}
	}
}

func TestRunNeverRaisesScoresPastEvidenceCaps(t *testing.T) {
	schema := &model.CriteriaSchema{Categories: []model.CategorySpec{
		{Name: "Market Opportunity", Weight: 100, Criteria: []model.CriterionSpec{
			{Name: "Market Growth"},
			{Name: "Capped Growth", InsufficientEvidenceCap: 50},
		}},
	}}
	cats := []model.CategoryScore{
		{Category: "Market Opportunity", Weight: 100, Criteria: []model.CriterionScore{
			{Name: "Market Growth", Score: 60, Confidence: 60, EvidenceStatus: model.EvidenceUnknown,
				Evidence: []string{model.NoEvidenceSentinel}},
			{Name: "Capped Growth", Score: 50, Confidence: 60, EvidenceStatus: model.EvidenceUnknown,
				Evidence: []string{model.NoEvidenceSentinel}},
		}},
	}
	c := Context{
		Schema: schema,
		Intel: &model.ExternalMarketIntelligence{
			Growth: model.MarketGrowthEstimate{EstimatedCAGR: "20%", GrowthBand: "high", Confidence: 80},
		},
		RaiseEvidence: true,
	}

	out := Run(cats, c)

	// The growth pass pulls toward the high-band target, but unknown evidence
	// still bounds the result at the criterion cap.
	assert.LessOrEqual(t, out[0].Criteria[0].Score, 60.0)
	assert.LessOrEqual(t, out[0].Criteria[1].Score, 50.0)
	assert.Equal(t, model.EvidenceUnknown, out[0].Criteria[0].EvidenceStatus)
}

func TestRunOverrideNudgeRespectsContradictedCap(t *testing.T) {
	cats := []model.CategoryScore{
		{Category: "Team", Weight: 100, Criteria: []model.CriterionScore{
			{Name: "Founder Experience", Score: 40, Confidence: 30, EvidenceStatus: model.EvidenceContradicted,
				Evidence: []string{"resume conflicts with filings"}},
		}},
	}
	c := Context{
		OverrideStats: []OverrideStat{{Category: "Team", AvgDelta: 12, SampleCount: 10}},
		RaiseEvidence: true,
	}

	out := Run(cats, c)

	assert.LessOrEqual(t, out[0].Criteria[0].Score, 40.0)
	assert.Contains(t, out[0].Criteria[0].Reasoning, overrideMarker,
		"the nudge still runs; only the cap bounds it")
}

func TestCategoriesAndCriteriaMatching(t *testing.T) {
	cats := fullInput()

	assert.Equal(t, []int{0}, categoriesMatching(cats, "market"))
	assert.Empty(t, categoriesMatching(cats, "nonexistent"))

	positions := criteriaMatching(cats, "growth")
	require.Len(t, positions, 1)
	assert.Equal(t, [2]int{0, 1}, positions[0])
}

func TestAppendReasoning(t *testing.T) {
	cr := model.CriterionScore{}
	appendReasoning(&cr, "First note.")
	assert.Equal(t, "First note.", cr.Reasoning)

	appendReasoning(&cr, "Second note.")
	assert.Equal(t, "First note. Second note.", cr.Reasoning)
}
