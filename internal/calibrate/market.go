package calibrate

import (
	"fmt"

	"github.com/sells-group/diligence-cli/internal/market"
	"github.com/sells-group/diligence-cli/internal/model"
)

// Competitive-threat penalty thresholds.
const (
	severeThreatScore   = 80.0
	severeThreatPenalty = 8.0
	highThreatScore     = 65.0
	highThreatPenalty   = 4.0
)

const threatMarker = "Competitive-threat adjustment"

// threatPenaltyPass reduces market and product-market-fit scores when the
// independent competitive-threat assessment is high.
func threatPenaltyPass(cats []model.CategoryScore, c Context) {
	if c.Intel == nil {
		return
	}
	penalty := 0.0
	switch {
	case c.Intel.CompetitiveThreat >= severeThreatScore:
		penalty = severeThreatPenalty
	case c.Intel.CompetitiveThreat >= highThreatScore:
		penalty = highThreatPenalty
	default:
		return
	}

	note := fmt.Sprintf("%s (threat %.0f/100, -%.0f).", threatMarker, c.Intel.CompetitiveThreat, penalty)
	for _, i := range categoriesMatching(cats, "market", "product-market", "pmf") {
		cat := &cats[i]
		if hasMarker(cat.Criteria, threatMarker) {
			continue
		}
		for j := range cat.Criteria {
			cr := &cat.Criteria[j]
			if cr.ManualOverride != nil {
				continue
			}
			cr.Score = model.Clamp(cr.Score-penalty, 0, 100)
			appendReasoning(cr, note)
		}
	}
}

// TAM-comparison confidence bounds.
const (
	tamBothSidesConfidenceFloor = 60.0
	tamOneSideConfidenceCap     = 50.0
	tamDiscrepancyConfidenceCap = 45.0
)

const tamMarker = "Independent market check:"

const tamDiscrepancyItem = "Founder TAM and independent estimate differ by more than 5x; reconcile market-sizing methodology."

// tamComparisonPass rewrites TAM-criterion reasoning to cite the founder
// claim against the independent estimate and bounds confidence by how much of
// the comparison is actually available.
func tamComparisonPass(cats []model.CategoryScore, c Context) {
	if c.Intel == nil {
		return
	}
	tam := c.Intel.TAM

	for _, pos := range criteriaMatching(cats, "tam", "market size", "addressable market") {
		cr := &cats[pos[0]].Criteria[pos[1]]
		if !hasMarker([]model.CriterionScore{*cr}, tamMarker) {
			note := tamComparisonNote(tam)
			appendReasoning(cr, note)
		}

		claimPresent := !model.IsPlaceholder(tam.CompanyClaim)
		independentPresent := !model.IsPlaceholder(tam.IndependentTAM)
		switch {
		case claimPresent && independentPresent:
			if cr.Confidence < tamBothSidesConfidenceFloor {
				cr.Confidence = tamBothSidesConfidenceFloor
			}
		default:
			if cr.Confidence > tamOneSideConfidenceCap {
				cr.Confidence = tamOneSideConfidenceCap
			}
		}

		if market.HasLargeDiscrepancy(tam.CompanyClaim, tam.IndependentTAM) {
			if !hasMissingData(cr, tamDiscrepancyItem) {
				cr.MissingData = append(cr.MissingData, tamDiscrepancyItem)
			}
			if cr.Confidence > tamDiscrepancyConfidenceCap {
				cr.Confidence = tamDiscrepancyConfidenceCap
			}
		}
	}
}

func tamComparisonNote(tam model.TamEstimate) string {
	claim := tam.CompanyClaim
	if model.IsPlaceholder(claim) {
		claim = "not stated"
	}
	independent := tam.IndependentTAM
	if model.IsPlaceholder(independent) {
		independent = "unavailable"
	}
	return fmt.Sprintf("%s founder claim %s vs independent estimate %s (alignment: %s).",
		tamMarker, claim, independent, tam.Alignment)
}

// Market-growth banding.
const (
	growthTargetHigh     = 75.0
	growthTargetModerate = 60.0
	growthTargetLow      = 40.0

	// growthUnknownConfidenceCap bounds confidence when no growth evidence
	// exists at all.
	growthUnknownConfidenceCap = 50.0
	// growthConfidenceSlack is how far criterion confidence may exceed the
	// confidence of the growth evidence itself.
	growthConfidenceSlack = 25.0
	growthConfidenceCeil  = 90.0
)

const growthMarker = "Market growth signal:"

// marketGrowthPass moves growth-criterion scores halfway toward the band
// target derived from evidence, and bounds confidence by the quality of that
// evidence.
func marketGrowthPass(cats []model.CategoryScore, c Context) {
	if c.Intel == nil {
		return
	}
	growth := c.Intel.Growth

	for _, pos := range criteriaMatching(cats, "growth") {
		cr := &cats[pos[0]].Criteria[pos[1]]

		if growth.GrowthBand == "" || growth.GrowthBand == "unknown" {
			if cr.Confidence > growthUnknownConfidenceCap {
				cr.Confidence = growthUnknownConfidenceCap
			}
			continue
		}
		if hasMarker([]model.CriterionScore{*cr}, growthMarker) {
			continue
		}

		target := growthTargetModerate
		switch growth.GrowthBand {
		case "high":
			target = growthTargetHigh
		case "low":
			target = growthTargetLow
		}
		if cr.ManualOverride == nil {
			cr.Score = model.Clamp(cr.Score+(target-cr.Score)/2, 0, 100)
		}

		bound := model.Clamp(growth.Confidence+growthConfidenceSlack, 0, growthConfidenceCeil)
		if cr.Confidence > bound {
			cr.Confidence = bound
		}

		appendReasoning(cr, fmt.Sprintf("%s %s CAGR, %s band (%s).",
			growthMarker, growth.EstimatedCAGR, growth.GrowthBand, growth.Method))
	}
}
