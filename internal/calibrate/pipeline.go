// Package calibrate applies deterministic business rules on top of normalized
// scoring output: historical-override nudges, market-intelligence penalties,
// research-signal confidence bounds, and fabrication guards. Every pass is a
// total in-place transform over any valid category list, never errors, and is
// guarded so re-running the pipeline over its own output changes nothing.
package calibrate

import (
	"go.uber.org/zap"

	"github.com/sells-group/diligence-cli/internal/model"
)

// OverrideStat is one aggregate row of historical analyst overrides for a
// category.
type OverrideStat struct {
	Category    string
	AvgDelta    float64
	SampleCount int
}

// Context carries the request-scoped signals the passes read. All fields are
// optional; absent signals make the corresponding pass a no-op.
type Context struct {
	Intel     *model.ExternalMarketIntelligence
	Team      *model.TeamResearch
	Portfolio *model.PortfolioSynergyResearch
	Necessity *model.ProblemNecessityResearch

	// Schema supplies per-criterion evidence-insufficiency caps. Without it
	// the default cap applies.
	Schema *model.CriteriaSchema

	// OverrideStats are historical analyst-override aggregates per category.
	OverrideStats []OverrideStat

	// RaiseEvidence reports whether any source line explicitly documents a
	// raise amount. Without it, dollar-figure raise claims are treated as
	// fabricated.
	RaiseEvidence bool

	// TractionSignals are pilot/POC/LOI/adoption phrases found in the corpus.
	TractionSignals []string

	// HasARR reports whether a usable ARR metric exists.
	HasARR bool
}

// Pass is one named calibration transform. Passes mutate the category list in
// place; Run hands them a deep copy of the caller's input.
type Pass struct {
	Name  string
	Apply func(cats []model.CategoryScore, c Context)
}

// passes is the fixed pipeline order. Order matters: score-level nudges run
// before confidence-level bounds, guards run last.
var passes = []Pass{
	{Name: "override_learning", Apply: overrideLearningPass},
	{Name: "competitive_threat", Apply: threatPenaltyPass},
	{Name: "tam_comparison", Apply: tamComparisonPass},
	{Name: "market_growth", Apply: marketGrowthPass},
	{Name: "team_research", Apply: teamResearchPass},
	{Name: "portfolio_synergy", Apply: portfolioSynergyPass},
	{Name: "problem_necessity", Apply: problemNecessityPass},
	{Name: "funding_guard", Apply: fundingGuardPass},
	{Name: "early_traction", Apply: earlyTractionPass},
}

// Run applies the full calibration pipeline and returns a new category list.
// The input is never mutated. Evidence caps are re-asserted after the chain,
// so a score-raising pass cannot move a criterion past what its evidence
// supports, and every category is recomputed at the end so the score/criteria
// aggregation invariant holds on the output.
func Run(cats []model.CategoryScore, c Context) []model.CategoryScore {
	out := deepCopy(cats)
	for _, p := range passes {
		p.Apply(out, c)
		zap.L().Debug("calibration pass applied", zap.String("pass", p.Name))
	}
	for i := range out {
		reassertEvidenceCaps(&out[i], c.Schema)
		out[i].Recompute()
	}
	return out
}

func reassertEvidenceCaps(cat *model.CategoryScore, schema *model.CriteriaSchema) {
	for j := range cat.Criteria {
		cr := &cat.Criteria[j]
		bound := float64(model.DefaultInsufficientEvidenceCap)
		if schema != nil {
			bound = schema.CapFor(cat.Category, cr.Name)
		}
		cr.ApplyEvidenceCap(bound)
	}
}

func deepCopy(cats []model.CategoryScore) []model.CategoryScore {
	out := make([]model.CategoryScore, len(cats))
	for i, cat := range cats {
		out[i] = cat
		out[i].Criteria = make([]model.CriterionScore, len(cat.Criteria))
		for j, cr := range cat.Criteria {
			out[i].Criteria[j] = cr
			out[i].Criteria[j].Evidence = append([]string(nil), cr.Evidence...)
			out[i].Criteria[j].MissingData = append([]string(nil), cr.MissingData...)
			out[i].Criteria[j].FollowUpQuestions = append([]string(nil), cr.FollowUpQuestions...)
			if cr.ManualOverride != nil {
				v := *cr.ManualOverride
				out[i].Criteria[j].ManualOverride = &v
			}
		}
	}
	return out
}
