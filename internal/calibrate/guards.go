package calibrate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

// raiseAmountRe matches dollar figures inside deal-terms reasoning. It only
// needs to catch figures the reasoning service wrote itself, which always use
// the $-prefixed form.
var raiseAmountRe = regexp.MustCompile(`(?i)\$\s*[0-9][0-9,]*(?:\.[0-9]+)?(?:\s*(?:k|mm|m|bn|b|thousand|million|billion))?`)

const unverifiedAmount = "[unverified amount]"

const fundingMissingItem = "No documented raise amount appears anywhere in the provided material."

// fundingGuardPass strips fabricated dollar-figure raise claims from
// deal-terms reasoning when no raise-amount evidence exists in the corpus.
// Valuation criteria are out of scope: a documented post-money figure is not
// a raise claim. Replacement is stable: once stripped, a second run finds
// nothing to strip.
func fundingGuardPass(cats []model.CategoryScore, c Context) {
	if c.RaiseEvidence {
		return
	}

	for _, pos := range criteriaMatching(cats, "funding", "deal", "raise", "round") {
		cr := &cats[pos[0]].Criteria[pos[1]]

		if raiseAmountRe.MatchString(cr.Reasoning) {
			cr.Reasoning = raiseAmountRe.ReplaceAllString(cr.Reasoning, unverifiedAmount)
		}
		if raiseAmountRe.MatchString(cr.Answer) {
			cr.Answer = raiseAmountRe.ReplaceAllString(cr.Answer, unverifiedAmount)
		}
		if !hasMissingData(cr, fundingMissingItem) {
			cr.MissingData = append(cr.MissingData, fundingMissingItem)
		}
	}
}

// Early-traction tuning.
const (
	tractionScoreFloor      = 40.0
	tractionConfidenceFloor = 45.0
	tractionSignalsCited    = 3
)

const tractionMarker = "Early traction signals (pre-revenue):"

// earlyTractionPass floors traction criteria when the company has no ARR but
// the corpus carries pilot/POC/LOI/adoption language, so "no revenue" is not
// read as "no traction."
func earlyTractionPass(cats []model.CategoryScore, c Context) {
	if c.HasARR || len(c.TractionSignals) == 0 {
		return
	}

	cited := c.TractionSignals
	if len(cited) > tractionSignalsCited {
		cited = cited[:tractionSignalsCited]
	}
	note := fmt.Sprintf("%s %s.", tractionMarker, strings.Join(cited, "; "))

	for _, pos := range criteriaMatching(cats, "traction", "revenue", "customer", "adoption") {
		cr := &cats[pos[0]].Criteria[pos[1]]

		if cr.ManualOverride == nil && cr.Score < tractionScoreFloor {
			cr.Score = tractionScoreFloor
		}
		if cr.Confidence < tractionConfidenceFloor {
			cr.Confidence = tractionConfidenceFloor
		}
		if !strings.Contains(cr.Reasoning, tractionMarker) {
			appendReasoning(cr, note)
		}
	}
}
