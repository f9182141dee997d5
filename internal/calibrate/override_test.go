package calibrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/diligence-cli/internal/model"
)

func teamCategory(score, confidence float64) []model.CategoryScore {
	return []model.CategoryScore{
		{Category: "Team", Weight: 40, Criteria: []model.CriterionScore{
			{Name: "Founder Experience", Score: score, Confidence: confidence},
		}},
	}
}

func TestOverrideLearningNudge(t *testing.T) {
	tests := []struct {
		name       string
		stat       OverrideStat
		confidence float64
		wantScore  float64
	}{
		{
			name:       "full strength scaled by doubt",
			stat:       OverrideStat{Category: "Team", AvgDelta: 10, SampleCount: 10},
			confidence: 60, // doubt 0.4, delta +4
			wantScore:  54,
		},
		{
			name:       "few samples shrink the nudge",
			stat:       OverrideStat{Category: "Team", AvgDelta: 10, SampleCount: 5},
			confidence: 60, // strength 0.5, delta +2
			wantScore:  52,
		},
		{
			name:       "bounded at the max nudge",
			stat:       OverrideStat{Category: "Team", AvgDelta: 40, SampleCount: 100},
			confidence: 0, // raw delta 40, clamped to +12
			wantScore:  62,
		},
		{
			name:       "negative history pulls down",
			stat:       OverrideStat{Category: "Team", AvgDelta: -10, SampleCount: 10},
			confidence: 60,
			wantScore:  46,
		},
		{
			name:       "tiny delta is dropped",
			stat:       OverrideStat{Category: "Team", AvgDelta: 0.5, SampleCount: 10},
			confidence: 60, // delta 0.2 < minimum
			wantScore:  50,
		},
		{
			name:       "case-insensitive category match",
			stat:       OverrideStat{Category: "TEAM", AvgDelta: 10, SampleCount: 10},
			confidence: 60,
			wantScore:  54,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats := teamCategory(50, tt.confidence)
			overrideLearningPass(cats, Context{OverrideStats: []OverrideStat{tt.stat}})
			assert.InDelta(t, tt.wantScore, cats[0].Criteria[0].Score, 0.01)
		})
	}
}

func TestOverrideLearningSkipsManualOverrides(t *testing.T) {
	cats := teamCategory(50, 60)
	cats[0].Criteria[0].ManualOverride = ptrFloat64(75)

	overrideLearningPass(cats, Context{OverrideStats: []OverrideStat{
		{Category: "Team", AvgDelta: 10, SampleCount: 10},
	}})

	assert.InDelta(t, 50, cats[0].Criteria[0].Score, 0.01)
	assert.Empty(t, cats[0].Criteria[0].Reasoning)
}

func TestOverrideLearningAppliedOnce(t *testing.T) {
	cats := teamCategory(50, 60)
	c := Context{OverrideStats: []OverrideStat{{Category: "Team", AvgDelta: 10, SampleCount: 10}}}

	overrideLearningPass(cats, c)
	require.InDelta(t, 54, cats[0].Criteria[0].Score, 0.01)

	overrideLearningPass(cats, c)
	assert.InDelta(t, 54, cats[0].Criteria[0].Score, 0.01, "marker prevents a second nudge")
}

func TestOverrideLearningNoStatsNoChange(t *testing.T) {
	cats := teamCategory(50, 60)
	overrideLearningPass(cats, Context{})
	assert.InDelta(t, 50, cats[0].Criteria[0].Score, 0.01)

	overrideLearningPass(cats, Context{OverrideStats: []OverrideStat{
		{Category: "Product", AvgDelta: 10, SampleCount: 10},
	}})
	assert.InDelta(t, 50, cats[0].Criteria[0].Score, 0.01)
}
