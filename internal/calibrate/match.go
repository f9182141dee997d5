package calibrate

import (
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

// nameContains reports whether name contains any of the fragments,
// case-insensitively.
func nameContains(name string, fragments ...string) bool {
	lower := strings.ToLower(name)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// categoriesMatching returns indexes of categories whose name contains any
// fragment.
func categoriesMatching(cats []model.CategoryScore, fragments ...string) []int {
	var out []int
	for i, cat := range cats {
		if nameContains(cat.Category, fragments...) {
			out = append(out, i)
		}
	}
	return out
}

// criteriaMatching returns (category, criterion) index pairs for criteria
// whose name contains any fragment, across all categories.
func criteriaMatching(cats []model.CategoryScore, fragments ...string) [][2]int {
	var out [][2]int
	for i, cat := range cats {
		for j, cr := range cat.Criteria {
			if nameContains(cr.Name, fragments...) {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// appendReasoning adds a calibration note to a criterion's reasoning.
func appendReasoning(cr *model.CriterionScore, note string) {
	if strings.TrimSpace(cr.Reasoning) == "" {
		cr.Reasoning = note
		return
	}
	cr.Reasoning = strings.TrimRight(cr.Reasoning, " \n") + " " + note
}

// hasMissingData reports whether the criterion already carries the item.
func hasMissingData(cr *model.CriterionScore, item string) bool {
	for _, m := range cr.MissingData {
		if m == item {
			return true
		}
	}
	return false
}

// meanConfidence averages criterion confidence for a category. Zero criteria
// yield zero.
func meanConfidence(cat model.CategoryScore) float64 {
	if len(cat.Criteria) == 0 {
		return 0
	}
	sum := 0.0
	for _, cr := range cat.Criteria {
		sum += cr.Confidence
	}
	return sum / float64(len(cat.Criteria))
}
