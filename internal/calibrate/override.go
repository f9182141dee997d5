package calibrate

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

// Override-learning tuning.
const (
	// maxOverrideNudge bounds the per-category learning adjustment.
	maxOverrideNudge = 12.0
	// overrideFullStrengthSamples is the sample count at which historical
	// override data is trusted at full weight.
	overrideFullStrengthSamples = 10
	// minOverrideNudge drops adjustments too small to matter.
	minOverrideNudge = 0.5
)

const overrideMarker = "Adjusted toward analyst-override history"

// overrideLearningPass nudges each category toward the historical average
// human-override delta for that category. The nudge scales with sample
// strength and inversely with how confident the model already is, bounded to
// a fixed range, and lands on the criterion scores so the category mean
// reflects it after recompute. Criteria under manual override are untouched.
func overrideLearningPass(cats []model.CategoryScore, c Context) {
	for i := range cats {
		cat := &cats[i]
		stat, ok := statFor(c.OverrideStats, cat.Category)
		if !ok || stat.SampleCount == 0 {
			continue
		}
		if hasMarker(cat.Criteria, overrideMarker) {
			continue
		}

		strength := math.Min(1, float64(stat.SampleCount)/overrideFullStrengthSamples)
		doubt := (100 - meanConfidence(*cat)) / 100
		delta := model.Clamp(stat.AvgDelta*strength*doubt, -maxOverrideNudge, maxOverrideNudge)
		if math.Abs(delta) < minOverrideNudge {
			continue
		}

		note := fmt.Sprintf("%s (%+.1f, %d samples).", overrideMarker, delta, stat.SampleCount)
		for j := range cat.Criteria {
			cr := &cat.Criteria[j]
			if cr.ManualOverride != nil {
				continue
			}
			cr.Score = model.Clamp(cr.Score+delta, 0, 100)
			appendReasoning(cr, note)
		}
	}
}

func statFor(stats []OverrideStat, category string) (OverrideStat, bool) {
	for _, s := range stats {
		if strings.EqualFold(s.Category, category) {
			return s, true
		}
	}
	return OverrideStat{}, false
}

func hasMarker(criteria []model.CriterionScore, marker string) bool {
	for _, cr := range criteria {
		if strings.Contains(cr.Reasoning, marker) {
			return true
		}
	}
	return false
}
