// Package refine synthesizes and ranks the qualitative outputs of a scoring
// run: concerns, follow-up questions, and the suppressed-topic filter driven
// by analyst override history.
package refine

import (
	"github.com/sells-group/diligence-cli/internal/model"
)

// Evidence-status penalties feeding materiality. Weaker evidence makes a low
// score more worth asking about.
const (
	contradictedPenalty    = 15.0
	unknownPenalty         = 10.0
	weaklySupportedPenalty = 5.0

	// lowConfidenceThreshold is where confidence starts adding materiality.
	lowConfidenceThreshold = 50.0
	lowConfidenceDivisor   = 5.0
)

// Materiality scores how much a criterion deserves analyst attention: the
// weighted score gap plus penalties for weak evidence and low confidence.
func Materiality(cr model.CriterionScore, categoryWeight float64) float64 {
	m := (100 - cr.EffectiveScore()) * (categoryWeight / 100)

	switch cr.EvidenceStatus {
	case model.EvidenceContradicted:
		m += contradictedPenalty
	case model.EvidenceUnknown:
		m += unknownPenalty
	case model.EvidenceWeaklySupported:
		m += weaklySupportedPenalty
	}

	if cr.Confidence < lowConfidenceThreshold {
		m += (lowConfidenceThreshold - cr.Confidence) / lowConfidenceDivisor
	}
	return m
}

// rankedCriterion pairs a criterion with its category context for sorting.
type rankedCriterion struct {
	category    string
	criterion   model.CriterionScore
	materiality float64
}

// rankCriteria returns all criteria sorted by materiality, highest first.
func rankCriteria(cats []model.CategoryScore) []rankedCriterion {
	var out []rankedCriterion
	for _, cat := range cats {
		for _, cr := range cat.Criteria {
			out = append(out, rankedCriterion{
				category:    cat.Category,
				criterion:   cr,
				materiality: Materiality(cr, cat.Weight),
			})
		}
	}
	// Insertion sort descending; criterion counts are small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].materiality > out[j-1].materiality; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
