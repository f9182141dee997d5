package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/diligence-cli/internal/model"
)

func ptrFloat64(v float64) *float64 { return &v }

func twoCategorySchema() *model.CriteriaSchema {
	return &model.CriteriaSchema{Categories: []model.CategorySpec{
		{Name: "Team", Weight: 40, Criteria: []model.CriterionSpec{
			{Name: "Founder Experience"},
			{Name: "Role Coverage", InsufficientEvidenceCap: 50},
		}},
		{Name: "Market", Weight: 60, Criteria: []model.CriterionSpec{
			{Name: "TAM Credibility"},
		}},
	}}
}

func TestNormalizeExactAndFoldedNames(t *testing.T) {
	raw := &RawScore{Categories: []RawCategory{
		{Name: "market", Score: 70, Criteria: []RawCriterion{
			{Name: "tam credibility!", Score: 72, Confidence: ptrFloat64(80), EvidenceStatus: "supported", Evidence: []string{"analyst report"}},
		}},
		{Name: "Team", Score: 60, Criteria: []RawCriterion{
			{Name: "Founder Experience", Score: 65, Confidence: ptrFloat64(70), EvidenceStatus: "supported", Evidence: []string{"two prior exits"}},
			{Name: "Role Coverage", Score: 55, Confidence: ptrFloat64(60), EvidenceStatus: "supported", Evidence: []string{"CTO verified"}},
		}},
	}}

	cats := Normalize(raw, twoCategorySchema())
	require.Len(t, cats, 2)

	// Output follows schema order and canonical names regardless of response order.
	assert.Equal(t, "Team", cats[0].Category)
	assert.InDelta(t, 40, cats[0].Weight, 0.01)
	assert.Equal(t, "Market", cats[1].Category)
	assert.InDelta(t, 72, cats[1].Criteria[0].Score, 0.01)
}

func TestNormalizeSubstringAndPositionalFallback(t *testing.T) {
	raw := &RawScore{Categories: []RawCategory{
		{Name: "Team & Founders", Score: 50, Criteria: []RawCriterion{
			// Substring match onto Founder Experience.
			{Name: "Experience", Score: 45, Confidence: ptrFloat64(60), EvidenceStatus: "supported", Evidence: []string{"x"}},
			// Invented label lands positionally on Role Coverage.
			{Name: "Bench Strength", Score: 52, Confidence: ptrFloat64(60), EvidenceStatus: "supported", Evidence: []string{"y"}},
		}},
	}}

	cats := Normalize(raw, twoCategorySchema())
	assert.InDelta(t, 45, cats[0].Criteria[0].Score, 0.01)
	assert.Equal(t, "Role Coverage", cats[0].Criteria[1].Name)
	assert.InDelta(t, 52, cats[0].Criteria[1].Score, 0.01)
}

func TestNormalizeDefaults(t *testing.T) {
	raw := &RawScore{Categories: []RawCategory{
		{Name: "Market", Criteria: []RawCriterion{
			{Name: "TAM Credibility", Score: 140, EvidenceStatus: "very strong"},
		}},
	}}

	cats := Normalize(raw, twoCategorySchema())
	cr := cats[1].Criteria[0]

	assert.InDelta(t, 55, cr.Confidence, 0.01, "confidence defaults when absent")
	assert.Equal(t, model.EvidenceUnknown, cr.EvidenceStatus, "invalid status becomes unknown")
	assert.Equal(t, []string{model.NoEvidenceSentinel}, cr.Evidence)
	// Clamped to 100, then capped by unknown status to the default cap.
	assert.InDelta(t, model.DefaultInsufficientEvidenceCap, cr.Score, 0.01)
}

func TestNormalizeMissingCategoryFilledWithDefaults(t *testing.T) {
	cats := Normalize(&RawScore{}, twoCategorySchema())
	require.Len(t, cats, 2)
	require.Len(t, cats[0].Criteria, 2)
	for _, cr := range cats[0].Criteria {
		assert.Equal(t, model.EvidenceUnknown, cr.EvidenceStatus)
		assert.InDelta(t, 55, cr.Confidence, 0.01)
		assert.Zero(t, cr.Score)
	}
}

func TestNormalizeEvidenceCaps(t *testing.T) {
	tests := []struct {
		name      string
		raw       RawCriterion
		criterion string
		want      float64
	}{
		{
			name:      "unknown capped at criterion cap",
			raw:       RawCriterion{Name: "Role Coverage", Score: 90, EvidenceStatus: "unknown"},
			criterion: "Role Coverage",
			want:      50,
		},
		{
			name:      "contradicted capped at 40",
			raw:       RawCriterion{Name: "Founder Experience", Score: 85, EvidenceStatus: "contradicted", Evidence: []string{"resume conflicts"}},
			criterion: "Founder Experience",
			want:      40,
		},
		{
			name:      "weakly supported without evidence capped",
			raw:       RawCriterion{Name: "Founder Experience", Score: 88, EvidenceStatus: "weakly_supported"},
			criterion: "Founder Experience",
			want:      70, // min(70, 60+10)
		},
		{
			name:      "weakly supported with real evidence uncapped",
			raw:       RawCriterion{Name: "Founder Experience", Score: 88, EvidenceStatus: "weakly_supported", Evidence: []string{"press coverage"}},
			criterion: "Founder Experience",
			want:      88,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &RawScore{Categories: []RawCategory{{Name: "Team", Criteria: []RawCriterion{tt.raw}}}}
			cats := Normalize(raw, twoCategorySchema())
			for _, cr := range cats[0].Criteria {
				if cr.Name == tt.criterion {
					assert.InDelta(t, tt.want, cr.Score, 0.01)
					return
				}
			}
			t.Fatalf("criterion %s not found", tt.criterion)
		})
	}
}

func TestNormalizeCategoryScoreRecomputedWhenMissing(t *testing.T) {
	raw := &RawScore{Categories: []RawCategory{
		{Name: "Team", Score: 0, Criteria: []RawCriterion{
			{Name: "Founder Experience", Score: 60, Confidence: ptrFloat64(70), EvidenceStatus: "supported", Evidence: []string{"x"}},
			{Name: "Role Coverage", Score: 40, Confidence: ptrFloat64(70), EvidenceStatus: "supported", Evidence: []string{"y"}},
		}},
	}}

	cats := Normalize(raw, twoCategorySchema())
	assert.InDelta(t, 50, cats[0].Score, 0.01)

	// A nonzero service category score stands at this stage.
	raw.Categories[0].Score = 58
	cats = Normalize(raw, twoCategorySchema())
	assert.InDelta(t, 58, cats[0].Score, 0.01)
}

func TestNameMatcherConsumesEntriesOnce(t *testing.T) {
	m := newNameMatcher([]string{"Growth", "Growth"})
	first := m.match("Growth", 0)
	second := m.match("Growth", 1)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, -1, m.match("Growth", 5))
}
