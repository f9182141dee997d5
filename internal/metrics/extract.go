package metrics

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sells-group/diligence-cli/internal/model"
)

// Corpus is the combined textual fact base a scoring run extracts from.
type Corpus struct {
	Documents []model.Document
	Notes     []model.Note
	Facts     []string
}

// Lines returns every non-empty line across documents, notes, and facts.
func (c Corpus) Lines() []string {
	var out []string
	add := func(text string) {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
	}
	for _, d := range c.Documents {
		add(d.Text)
	}
	for _, n := range c.Notes {
		add(n.Text)
	}
	for _, f := range c.Facts {
		add(f)
	}
	return out
}

// Text returns the full corpus joined by newlines.
func (c Corpus) Text() string {
	return strings.Join(c.Lines(), "\n")
}

var (
	// Lines with projection/forecast language are excluded from ARR and
	// growth extraction so aspirational numbers never pass as actuals.
	projectionRe = regexp.MustCompile(`(?i)\b(projected|projections?|forecast\w*|target\w*|run[- ]?rate|expect\w*|anticipat\w*|goal|pipeline|plan(?:ned|s)?\b)`)

	arrKeywordRe       = regexp.MustCompile(`(?i)\b(arr|annual recurring revenue)\b`)
	yearTagRe          = regexp.MustCompile(`\b(20[0-9]{2})\b`)
	growthKeywordRe    = regexp.MustCompile(`(?i)\b(yoy|y/y|year[- ]over[- ]year|growth)\b`)
	tamKeywordRe       = regexp.MustCompile(`(?i)\b(tam|total addressable market)\b`)
	acvKeywordRe       = regexp.MustCompile(`(?i)\b(acv|average contract value|annual contract value)\b`)
	committedKeywordRe = regexp.MustCompile(`(?i)\b(committed|commitments?|soft[- ]circled)\b`)
	valuationKeywordRe = regexp.MustCompile(`(?i)\b(valuation|post[- ]money|pre[- ]money)\b`)
	dealTermsKeywordRe = regexp.MustCompile(`(?i)\b(safe|convertible note|priced round|deal terms|discount|valuation cap)\b`)
	leadRe             = regexp.MustCompile(`(?i)\b(?:lead investor|led by|lead:)\s*:?\s*(.+)`)
	runwayRe           = regexp.MustCompile(`(?i)\brunway\b`)
	monthsRe           = regexp.MustCompile(`(?i)\b([0-9]{1,3})\s*(?:months?|mos?)\b`)
	postFundingRe      = regexp.MustCompile(`(?i)\b(post[- ]?(funding|raise|round)|after (the )?(raise|round))\b`)
	marketGrowthRe     = regexp.MustCompile(`(?i)\b(market.{0,40}(grow\w*|cagr)|cagr)\b`)
	locationRe         = regexp.MustCompile(`(?i)\b(?:based in|headquartered in|hq in|hq:|location:)\s*([A-Za-z][A-Za-z .,'-]+)`)

	// A funding amount needs an explicit raise/seek/round phrase so idle
	// cash-on-hand figures never masquerade as a raise target.
	raisePhraseRe  = regexp.MustCompile(`(?i)\b(raising|raise[ds]?|seek(?:ing|s)?|round|fundrais\w*)\b`)
	cashOnHandRe   = regexp.MustCompile(`(?i)\b(cash on hand|in the bank|cash balance|cash position|idle cash)\b`)
	fundingAmountR = regexp.MustCompile(`(?i)\b(raising|raise[ds]?|seek(?:ing|s)?|round of|ask:?)\b`)
)

// Extract derives a partial MetricSet from the corpus. Every produced value
// carries source "auto". The timestamp stamps all values of the run.
func Extract(c Corpus, now time.Time) *model.MetricSet {
	lines := c.Lines()
	set := &model.MetricSet{}

	auto := func(value, detail string) *model.MetricValue {
		return &model.MetricValue{
			Value:        value,
			Source:       model.SourceAuto,
			SourceDetail: detail,
			UpdatedAt:    now,
		}
	}

	if v, ok := extractARR(lines); ok {
		set.ARR = auto(v, "arr_pattern")
	}
	if v, ok := extractExplicitGrowth(lines); ok {
		set.YoYGrowth = auto(v, "growth_pattern")
	} else if v, ok := DeriveYoYGrowth(lines); ok {
		set.YoYGrowth = auto(v, "yearly_arr_derivation")
	}
	if v, ok := keywordMoney(lines, tamKeywordRe); ok {
		set.TAM = auto(v, "tam_pattern")
	}
	if v, ok := keywordMoney(lines, acvKeywordRe); ok {
		set.ACV = auto(v, "acv_pattern")
	}
	if v, ok := extractFundingAmount(lines); ok {
		set.FundingAmount = auto(v, "raise_pattern")
	}
	if v, ok := keywordMoney(lines, committedKeywordRe); ok {
		set.Committed = auto(v, "committed_pattern")
	}
	if v, ok := keywordMoney(lines, valuationKeywordRe); ok {
		set.Valuation = auto(v, "valuation_pattern")
	}
	if v, ok := extractDealTerms(lines); ok {
		set.DealTerms = auto(v, "deal_terms_pattern")
	}
	if v, ok := extractLead(lines); ok {
		set.Lead = auto(v, "lead_pattern")
	}
	current, post := extractRunway(lines)
	if current != "" {
		set.CurrentRunway = auto(current, "runway_pattern")
	}
	if post != "" {
		set.PostFundingRunway = auto(post, "runway_pattern")
	}
	if v, ok := extractMarketGrowth(lines); ok {
		set.MarketGrowthRate = auto(v, "market_growth_pattern")
	}
	if v, ok := extractLocation(lines); ok {
		set.Location = auto(v, "location_pattern")
	}

	return set
}

// extractARR finds the first non-projected ARR money figure.
func extractARR(lines []string) (string, bool) {
	for _, line := range lines {
		if !arrKeywordRe.MatchString(line) || projectionRe.MatchString(line) {
			continue
		}
		if amount, ok := ParseMoney(line); ok {
			return FormatMoney(amount), true
		}
	}
	return "", false
}

// extractExplicitGrowth finds an explicitly stated, non-projected growth rate.
func extractExplicitGrowth(lines []string) (string, bool) {
	for _, line := range lines {
		if !growthKeywordRe.MatchString(line) || projectionRe.MatchString(line) {
			continue
		}
		// Market growth lines belong to the market metric, not company YoY.
		if marketGrowthRe.MatchString(line) {
			continue
		}
		if p, ok := ParsePercent(line); ok {
			return FormatPercent(p), true
		}
	}
	return "", false
}

// DeriveYoYGrowth computes year-over-year growth from the two most recent
// non-projected, year-tagged ARR values. Duplicate years keep their first
// occurrence.
func DeriveYoYGrowth(lines []string) (string, bool) {
	byYear := map[int]float64{}
	for _, line := range lines {
		if !arrKeywordRe.MatchString(line) || projectionRe.MatchString(line) {
			continue
		}
		yearMatch := yearTagRe.FindStringSubmatch(line)
		if yearMatch == nil {
			continue
		}
		year, _ := parseNumber(yearMatch[1])
		amount, ok := ParseMoney(line)
		if !ok {
			continue
		}
		if _, exists := byYear[int(year)]; !exists {
			byYear[int(year)] = amount
		}
	}
	if len(byYear) < 2 {
		return "", false
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	prev := byYear[years[len(years)-2]]
	latest := byYear[years[len(years)-1]]
	if prev <= 0 {
		return "", false
	}
	growth := (latest - prev) / prev * 100
	return FormatPercent(growth), true
}

// keywordMoney returns the formatted first money figure on a line matching re.
func keywordMoney(lines []string, re *regexp.Regexp) (string, bool) {
	for _, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		if amount, ok := ParseMoney(line); ok {
			return FormatMoney(amount), true
		}
	}
	return "", false
}

// extractFundingAmount requires an explicit raise phrase on the line, and
// skips cash-on-hand lines that lack one.
func extractFundingAmount(lines []string) (string, bool) {
	for _, line := range lines {
		if cashOnHandRe.MatchString(line) && !raisePhraseRe.MatchString(line) {
			continue
		}
		if !fundingAmountR.MatchString(line) {
			continue
		}
		if amount, ok := ParseMoney(line); ok {
			return FormatMoney(amount), true
		}
	}
	return "", false
}

// HasRaiseEvidence reports whether any corpus line states an explicit raise
// amount. Used by the funding-raise calibration guard.
func HasRaiseEvidence(c Corpus) bool {
	_, ok := extractFundingAmount(c.Lines())
	return ok
}

func extractDealTerms(lines []string) (string, bool) {
	for _, line := range lines {
		if dealTermsKeywordRe.MatchString(line) {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}

func extractLead(lines []string) (string, bool) {
	for _, line := range lines {
		if m := leadRe.FindStringSubmatch(line); m != nil {
			lead := strings.TrimRight(strings.TrimSpace(m[1]), ".")
			if lead != "" && !model.IsPlaceholder(lead) {
				return lead, true
			}
		}
	}
	return "", false
}

// extractRunway returns current and post-funding runway in months.
func extractRunway(lines []string) (current, post string) {
	for _, line := range lines {
		if !runwayRe.MatchString(line) {
			continue
		}
		m := monthsRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		months := m[1] + " months"
		if postFundingRe.MatchString(line) {
			if post == "" {
				post = months
			}
		} else if current == "" {
			current = months
		}
	}
	return current, post
}

func extractMarketGrowth(lines []string) (string, bool) {
	for _, line := range lines {
		if !marketGrowthRe.MatchString(line) || projectionRe.MatchString(line) {
			continue
		}
		if p, ok := ParsePercent(line); ok {
			return FormatPercent(p), true
		}
	}
	return "", false
}

func extractLocation(lines []string) (string, bool) {
	for _, line := range lines {
		if m := locationRe.FindStringSubmatch(line); m != nil {
			loc := strings.TrimRight(strings.TrimSpace(m[1]), ".")
			if loc != "" {
				return loc, true
			}
		}
	}
	return "", false
}

// metricKeywordRes drive FactLines: lines worth surfacing as structured facts.
var metricKeywordRes = []*regexp.Regexp{
	arrKeywordRe, tamKeywordRe, acvKeywordRe, growthKeywordRe,
	committedKeywordRe, valuationKeywordRe, dealTermsKeywordRe,
	runwayRe, marketGrowthRe, raisePhraseRe,
}

// FactLines returns corpus lines that carry at least one metric keyword and a
// numeric token. This is the standalone structured-fact extraction entry
// point's core.
func FactLines(c Corpus) []string {
	var out []string
	seen := map[string]bool{}
	for _, line := range c.Lines() {
		if seen[line] {
			continue
		}
		hasKeyword := false
		for _, re := range metricKeywordRes {
			if re.MatchString(line) {
				hasKeyword = true
				break
			}
		}
		if !hasKeyword {
			continue
		}
		if _, ok := ParseMoney(line); !ok {
			if _, ok := ParsePercent(line); !ok {
				continue
			}
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}
