package scoring

import (
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

// defaultConfidence is assigned when the service omits a confidence value.
const defaultConfidence = 55

// Normalize maps a raw service payload onto the criteria schema: every schema
// category and criterion appears exactly once, in schema order, with clamped
// scores, defaulted confidence, and evidence-insufficiency caps applied.
// Labels the service invented or mangled are resolved by tiered name matching.
func Normalize(raw *RawScore, schema *model.CriteriaSchema) []model.CategoryScore {
	catMatcher := newNameMatcher(rawCategoryNames(raw.Categories))

	out := make([]model.CategoryScore, len(schema.Categories))
	for i, catSpec := range schema.Categories {
		var rawCat RawCategory
		if idx := catMatcher.match(catSpec.Name, i); idx >= 0 {
			rawCat = raw.Categories[idx]
		}

		crMatcher := newNameMatcher(rawCriterionNames(rawCat.Criteria))
		criteria := make([]model.CriterionScore, len(catSpec.Criteria))
		for j, crSpec := range catSpec.Criteria {
			var rawCr RawCriterion
			if idx := crMatcher.match(crSpec.Name, j); idx >= 0 {
				rawCr = rawCat.Criteria[idx]
			}
			criteria[j] = normalizeCriterion(rawCr, crSpec)
		}

		cat := model.CategoryScore{
			Category: catSpec.Name,
			Weight:   catSpec.Weight,
			Score:    model.Clamp(rawCat.Score, 0, 100),
			Criteria: criteria,
		}
		// A missing or zero category score is recomputed from the criteria.
		// A nonzero service value stands until the final recompute pass.
		if cat.Score <= 0 {
			cat.Recompute()
		} else {
			cat.WeightedScore = cat.Score * cat.Weight / 100
		}
		out[i] = cat
	}
	return out
}

func normalizeCriterion(raw RawCriterion, spec model.CriterionSpec) model.CriterionScore {
	cr := model.CriterionScore{
		Name:              spec.Name,
		Score:             model.Clamp(raw.Score, 0, 100),
		EvidenceStatus:    model.EvidenceStatus(strings.ToLower(strings.TrimSpace(raw.EvidenceStatus))),
		Reasoning:         strings.TrimSpace(raw.Reasoning),
		Evidence:          trimAll(raw.Evidence),
		MissingData:       trimAll(raw.MissingData),
		FollowUpQuestions: trimAll(raw.FollowUpQuestions),
		Answer:            strings.TrimSpace(raw.Answer),
	}

	if raw.Confidence != nil {
		cr.Confidence = model.Clamp(*raw.Confidence, 0, 100)
	} else {
		cr.Confidence = defaultConfidence
	}
	if !cr.EvidenceStatus.Valid() {
		cr.EvidenceStatus = model.EvidenceUnknown
	}
	if len(cr.Evidence) == 0 {
		cr.Evidence = []string{model.NoEvidenceSentinel}
	}

	cr.ApplyEvidenceCap(spec.Cap())
	return cr
}

// nameMatcher resolves free-form response labels onto canonical schema names.
// Each raw entry is consumed at most once so duplicate service labels cannot
// shadow distinct schema entries.
type nameMatcher struct {
	names []string
	used  []bool
}

func newNameMatcher(names []string) *nameMatcher {
	return &nameMatcher{names: names, used: make([]bool, len(names))}
}

// match resolves the canonical name to a raw index, trying tiers in order:
// exact match, case- and punctuation-insensitive match, substring containment
// either way, then positional fallback. Returns -1 when nothing fits.
func (m *nameMatcher) match(canonical string, pos int) int {
	if idx := m.find(func(raw string) bool { return raw == canonical }); idx >= 0 {
		return idx
	}

	foldedWant := foldName(canonical)
	if idx := m.find(func(raw string) bool { return foldName(raw) == foldedWant }); idx >= 0 {
		return idx
	}
	if idx := m.find(func(raw string) bool {
		foldedRaw := foldName(raw)
		if foldedRaw == "" || foldedWant == "" {
			return false
		}
		return strings.Contains(foldedRaw, foldedWant) || strings.Contains(foldedWant, foldedRaw)
	}); idx >= 0 {
		return idx
	}

	if pos >= 0 && pos < len(m.names) && !m.used[pos] {
		m.used[pos] = true
		return pos
	}
	return -1
}

func (m *nameMatcher) find(pred func(string) bool) int {
	for i, n := range m.names {
		if !m.used[i] && pred(n) {
			m.used[i] = true
			return i
		}
	}
	return -1
}

// foldName lowercases and strips non-alphanumeric characters so labels like
// "Product-Market Fit" and "product market fit" compare equal.
func foldName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func rawCategoryNames(cats []RawCategory) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}

func rawCriterionNames(crs []RawCriterion) []string {
	names := make([]string, len(crs))
	for i, c := range crs {
		names[i] = c.Name
	}
	return names
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
