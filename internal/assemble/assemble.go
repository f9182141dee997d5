// Package assemble builds the bounded prompt context for scoring requests:
// evidence snippets, prior-score continuity, metrics, and external
// intelligence, compacted by relevance when oversized.
package assemble

import (
	"fmt"
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

// Input is everything a scoring run knows before calling the reasoning
// service.
type Input struct {
	CompanyName string
	CompanyURL  string
	Schema      *model.CriteriaSchema
	Metrics     *model.MetricSet
	Intel       *model.ExternalMarketIntelligence
	Documents   []model.Document
	Notes       []model.Note
	Facts       []string
	Questions   []string
	Enrichment  string
	Team        *model.TeamResearch
	Portfolio   *model.PortfolioSynergyResearch
	Necessity   *model.ProblemNecessityResearch
	Previous    *model.DiligenceScore
}

// Context is the assembled prompt material.
type Context struct {
	// FactBase holds structured blocks: metrics, external intelligence,
	// research findings, prior-score continuity.
	FactBase string
	// Evidence holds compacted document and note material.
	Evidence string
}

// Full joins the fact base and evidence for a single prompt.
func (c Context) Full() string {
	parts := []string{}
	if c.FactBase != "" {
		parts = append(parts, c.FactBase)
	}
	if c.Evidence != "" {
		parts = append(parts, "--- Source Material ---\n"+c.Evidence)
	}
	return strings.Join(parts, "\n\n")
}

// Build assembles the full-run context within maxChars.
func Build(in Input, maxChars int) Context {
	factBase := buildFactBase(in)

	budget := maxChars - len(factBase)
	if budget < 2000 {
		budget = 2000
	}
	keywords := schemaKeywords(in.Schema)
	evidence := relevanceTruncate(evidenceText(in), keywords, budget)

	return Context{FactBase: factBase, Evidence: evidence}
}

// BuildForCategory assembles a smaller per-category context for chunked
// scoring mode: same fact base, evidence compacted against the category's
// own criteria.
func BuildForCategory(in Input, cat model.CategorySpec, maxChars int) Context {
	factBase := buildFactBase(in)

	budget := maxChars - len(factBase)
	if budget < 1000 {
		budget = 1000
	}
	keywords := categoryKeywords(cat)
	evidence := relevanceTruncate(evidenceText(in), keywords, budget)

	return Context{FactBase: factBase, Evidence: evidence}
}

func buildFactBase(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Company: %s\n", in.CompanyName)
	if in.CompanyURL != "" {
		fmt.Fprintf(&b, "URL: %s\n", in.CompanyURL)
	}

	if block := formatMetrics(in.Metrics); block != "" {
		b.WriteString("\n--- Metrics ---\n" + block)
	}
	if block := formatIntel(in.Intel); block != "" {
		b.WriteString("\n--- Independent Market Intelligence ---\n" + block)
	}
	if block := formatFacts(in.Facts); block != "" {
		b.WriteString("\n--- Structured Facts ---\n" + block)
	}
	if block := formatResearch(in); block != "" {
		b.WriteString("\n--- Research Findings ---\n" + block)
	}
	if block := formatPrevious(in.Previous); block != "" {
		b.WriteString("\n--- Prior Score (continuity) ---\n" + block)
	}
	if in.Enrichment != "" {
		b.WriteString("\n--- Enrichment Data ---\n" + strings.TrimSpace(in.Enrichment) + "\n")
	}
	if len(in.Questions) > 0 {
		b.WriteString("\n--- Open Questions ---\n")
		for _, q := range in.Questions {
			b.WriteString("- " + q + "\n")
		}
	}

	return b.String()
}

func formatMetrics(m *model.MetricSet) string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for _, f := range model.MetricFields {
		v := m.Get(f)
		if !v.Usable() {
			continue
		}
		fmt.Fprintf(&b, "%s: %s (source: %s)\n", f, v.Value, v.Source)
	}
	return b.String()
}

func formatIntel(intel *model.ExternalMarketIntelligence) string {
	if intel == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Independent TAM: %s (confidence %.0f%%)\n", intel.TAM.IndependentTAM, intel.TAM.Confidence)
	if intel.TAM.CompanyClaim != "" {
		fmt.Fprintf(&b, "Founder TAM claim: %s (alignment: %s)\n", intel.TAM.CompanyClaim, intel.TAM.Alignment)
	}
	fmt.Fprintf(&b, "Market growth: %s, band %s (confidence %.0f%%)\n",
		intel.Growth.EstimatedCAGR, intel.Growth.GrowthBand, intel.Growth.Confidence)
	if len(intel.Competitors) > 0 {
		names := make([]string, len(intel.Competitors))
		for i, c := range intel.Competitors {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "Competitors: %s\n", strings.Join(names, ", "))
	}
	if intel.CompetitiveThreat > 0 {
		fmt.Fprintf(&b, "Competitive threat: %.0f/100\n", intel.CompetitiveThreat)
	}
	return b.String()
}

func formatFacts(facts []string) string {
	if len(facts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range facts {
		b.WriteString("- " + f + "\n")
	}
	return b.String()
}

func formatResearch(in Input) string {
	var b strings.Builder
	if in.Team != nil {
		if len(in.Team.Founders) == 0 {
			b.WriteString("Team research: no verified founders found\n")
		}
		for _, f := range in.Team.Founders {
			fmt.Fprintf(&b, "Founder: %s (%s), prior exits: %d\n", f.Name, f.Role, f.PriorExits)
		}
	}
	if in.Portfolio != nil {
		for _, o := range in.Portfolio.Overlaps {
			fmt.Fprintf(&b, "Portfolio overlap: %s (%s)\n", o.Company, o.Type)
		}
	}
	if in.Necessity != nil {
		fmt.Fprintf(&b, "Problem necessity: %s (%d signals)\n",
			in.Necessity.Classification, len(in.Necessity.Signals))
		for _, s := range in.Necessity.Signals {
			b.WriteString("  signal: " + s + "\n")
		}
	}
	return b.String()
}

// formatPrevious carries manual overrides and user perspectives forward so
// rescoring respects them.
func formatPrevious(prev *model.DiligenceScore) string {
	if prev == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Previous overall score: %.0f\n", prev.Overall)
	for _, cat := range prev.Categories {
		for _, cr := range cat.Criteria {
			if cr.ManualOverride != nil {
				fmt.Fprintf(&b, "Analyst override: %s / %s = %.0f", cat.Category, cr.Name, *cr.ManualOverride)
				if cr.OverrideReason != "" {
					fmt.Fprintf(&b, " (%s)", cr.OverrideReason)
				}
				b.WriteString("\n")
			}
			if cr.UserPerspective != "" {
				fmt.Fprintf(&b, "Analyst perspective on %s: %s\n", cr.Name, cr.UserPerspective)
			}
		}
	}
	return b.String()
}

func evidenceText(in Input) string {
	var parts []string
	for _, d := range in.Documents {
		parts = append(parts, fmt.Sprintf("--- %s ---\n%s", d.Name, strings.TrimSpace(d.Text)))
	}
	for _, n := range in.Notes {
		label := "Note"
		if n.Category != "" {
			label = "Note (" + n.Category + ")"
		}
		parts = append(parts, fmt.Sprintf("--- %s ---\n%s", label, strings.TrimSpace(n.Text)))
	}
	return strings.Join(parts, "\n\n")
}

func schemaKeywords(schema *model.CriteriaSchema) []string {
	if schema == nil {
		return nil
	}
	var text strings.Builder
	for _, cat := range schema.Categories {
		text.WriteString(cat.Name + " ")
		for _, cr := range cat.Criteria {
			text.WriteString(cr.Name + " " + cr.Description + " ")
		}
	}
	return extractKeywords(text.String())
}

func categoryKeywords(cat model.CategorySpec) []string {
	var text strings.Builder
	text.WriteString(cat.Name + " ")
	for _, cr := range cat.Criteria {
		text.WriteString(cr.Name + " " + cr.Description + " " + cr.Guidance + " ")
	}
	return extractKeywords(text.String())
}
