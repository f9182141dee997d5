// Package market derives independent TAM/SAM/SOM and market-growth estimates
// with tiered fallback: reasoning-service call, deterministic text
// extraction, then sector benchmark heuristics.
package market

import (
	"fmt"

	"github.com/sells-group/diligence-cli/internal/metrics"
	"github.com/sells-group/diligence-cli/internal/model"
)

// Alignment ratio thresholds (founder claim / independent estimate).
const (
	overstatedRatio       = 1.35
	somewhatHighRatio     = 1.1
	somewhatLowRatio      = 0.9
	understatedRatio      = 0.65
	largeDiscrepancyRatio = 5.0
)

// AlignmentRatio returns founder-claim / independent-estimate, when both
// sides parse as money.
func AlignmentRatio(companyClaim, independent string) (float64, bool) {
	claim, ok1 := metrics.ParseMoney(companyClaim)
	indep, ok2 := metrics.ParseMoney(independent)
	if !ok1 || !ok2 || indep == 0 {
		return 0, false
	}
	return claim / indep, true
}

// ClassifyAlignment compares the founder's TAM claim to the independent
// estimate by ratio. Either side missing yields unknown.
func ClassifyAlignment(companyClaim, independent string) model.TamAlignment {
	if model.IsPlaceholder(companyClaim) || model.IsPlaceholder(independent) {
		return model.TamUnknown
	}
	ratio, ok := AlignmentRatio(companyClaim, independent)
	if !ok {
		return model.TamUnknown
	}
	switch {
	case ratio > overstatedRatio:
		return model.TamOverstated
	case ratio < understatedRatio:
		return model.TamUnderstated
	case ratio >= somewhatHighRatio || ratio <= somewhatLowRatio:
		return model.TamSomewhatAligned
	default:
		return model.TamAligned
	}
}

// HasLargeDiscrepancy reports whether claim and estimate differ by more than
// 5x in either direction.
func HasLargeDiscrepancy(companyClaim, independent string) bool {
	ratio, ok := AlignmentRatio(companyClaim, independent)
	if !ok {
		return false
	}
	return ratio > largeDiscrepancyRatio || (ratio > 0 && ratio < 1/largeDiscrepancyRatio)
}

// deltaSummary renders a one-line founder-vs-independent comparison.
func deltaSummary(companyClaim, independent string, alignment model.TamAlignment) string {
	if alignment == model.TamUnknown {
		return ""
	}
	ratio, ok := AlignmentRatio(companyClaim, independent)
	if !ok {
		return ""
	}
	return fmt.Sprintf("Founder claims %s vs independent estimate %s (%.1fx, %s)",
		companyClaim, independent, ratio, alignment)
}
