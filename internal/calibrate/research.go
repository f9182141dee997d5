package calibrate

import (
	"fmt"
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

// Team-research tuning.
const (
	// noFounderConfidenceCap bounds team criteria when research found no
	// founders and the criterion cites no evidence of its own.
	noFounderConfidenceCap = 45.0

	exitBoostPerExit   = 5.0
	exitBoostMaxExits  = 2
	roleMatchBoost     = 5.0
	teamConfidenceCeil = 95.0
)

const teamMarker = "Verified founder history:"
const noFounderMarker = "Team research found no verifiable founders."

// teamResearchPass folds verified founder history into team-category
// confidence and reasoning. Zero verified founders with no inline evidence is
// treated as genuinely unknown, not merely uncertain.
func teamResearchPass(cats []model.CategoryScore, c Context) {
	if c.Team == nil {
		return
	}

	catIdx := categoriesMatching(cats, "team", "founder")
	if len(catIdx) == 0 {
		return
	}

	if len(c.Team.Founders) == 0 {
		for _, i := range catIdx {
			for j := range cats[i].Criteria {
				cr := &cats[i].Criteria[j]
				if cr.HasRealEvidence() {
					continue
				}
				if cr.Confidence > noFounderConfidenceCap {
					cr.Confidence = noFounderConfidenceCap
				}
				cr.EvidenceStatus = model.EvidenceUnknown
				if cr.Score > model.DefaultInsufficientEvidenceCap {
					cr.Score = model.DefaultInsufficientEvidenceCap
				}
				if !strings.Contains(cr.Reasoning, noFounderMarker) {
					appendReasoning(cr, noFounderMarker)
				}
			}
		}
		return
	}

	exits := 0
	roleMatch := false
	var names []string
	for _, f := range c.Team.Founders {
		exits += f.PriorExits
		roleMatch = roleMatch || f.RoleMatch
		names = append(names, f.Name)
	}
	if exits > exitBoostMaxExits {
		exits = exitBoostMaxExits
	}
	boost := float64(exits) * exitBoostPerExit
	if roleMatch {
		boost += roleMatchBoost
	}

	note := fmt.Sprintf("%s %s (%d prior exits verified, role match: %t).",
		teamMarker, strings.Join(names, ", "), exits, roleMatch)
	for _, i := range catIdx {
		if hasMarker(cats[i].Criteria, teamMarker) {
			continue
		}
		for j := range cats[i].Criteria {
			cr := &cats[i].Criteria[j]
			cr.Confidence = model.Clamp(cr.Confidence+boost, 0, teamConfidenceCeil)
			appendReasoning(cr, note)
		}
	}
}

// Portfolio-synergy tuning.
const (
	noOverlapConfidenceCap     = 50.0
	overlapConfidenceBase      = 50.0
	overlapConfidencePerMatch  = 10.0
	overlapConfidenceCeil      = 90.0
)

const portfolioMarker = "Portfolio overlap:"

// portfolioSynergyPass bounds synergy confidence by the count and mix of
// identified portfolio overlaps.
func portfolioSynergyPass(cats []model.CategoryScore, c Context) {
	if c.Portfolio == nil {
		return
	}

	positions := criteriaMatching(cats, "synerg", "portfolio")
	for _, i := range categoriesMatching(cats, "portfolio") {
		for j := range cats[i].Criteria {
			positions = append(positions, [2]int{i, j})
		}
	}

	n := len(c.Portfolio.Overlaps)
	counts := map[model.OverlapType]int{}
	for _, o := range c.Portfolio.Overlaps {
		counts[o.Type]++
	}

	seen := map[[2]int]bool{}
	for _, pos := range positions {
		if seen[pos] {
			continue
		}
		seen[pos] = true
		cr := &cats[pos[0]].Criteria[pos[1]]

		if n == 0 {
			if cr.Confidence > noOverlapConfidenceCap {
				cr.Confidence = noOverlapConfidenceCap
			}
			continue
		}

		floor := model.Clamp(overlapConfidenceBase+float64(n)*overlapConfidencePerMatch, 0, overlapConfidenceCeil)
		if cr.Confidence < floor {
			cr.Confidence = floor
		}
		if !strings.Contains(cr.Reasoning, portfolioMarker) {
			appendReasoning(cr, fmt.Sprintf("%s %d companies (%d similar-space, %d similar-customer, %d complementary).",
				portfolioMarker, n,
				counts[model.OverlapSimilarSpace],
				counts[model.OverlapSimilarCustomer],
				counts[model.OverlapComplementary]))
		}
	}
}

// Problem-necessity tuning.
const (
	necessityConfidenceBase      = 40.0
	necessityConfidencePerSignal = 15.0
	necessityConfidenceCeil      = 90.0

	// vaccineWeakSignalCap bounds a "vaccine" classification backed by fewer
	// than two concrete signals.
	vaccineWeakSignalCap     = 65.0
	vaccineWeakSignalMinimum = 2
)

const necessityMarker = "Necessity signals:"

// problemNecessityPass bounds necessity-criterion confidence by how many
// concrete signals back the classification.
func problemNecessityPass(cats []model.CategoryScore, c Context) {
	if c.Necessity == nil {
		return
	}
	n := len(c.Necessity.Signals)
	bound := model.Clamp(necessityConfidenceBase+float64(n)*necessityConfidencePerSignal, 0, necessityConfidenceCeil)

	for _, pos := range criteriaMatching(cats, "necessity", "painkiller", "problem") {
		cr := &cats[pos[0]].Criteria[pos[1]]

		if cr.Confidence > bound {
			cr.Confidence = bound
		}
		if c.Necessity.Classification == model.NecessityVaccine && n < vaccineWeakSignalMinimum {
			if cr.ManualOverride == nil && cr.Score > vaccineWeakSignalCap {
				cr.Score = vaccineWeakSignalCap
			}
		}
		if !strings.Contains(cr.Reasoning, necessityMarker) {
			appendReasoning(cr, fmt.Sprintf("%s classified %s with %d concrete signal(s).",
				necessityMarker, c.Necessity.Classification, n))
		}
	}
}
