package refine

import (
	"strings"
)

// jaccardThreshold is the token-set similarity above which two candidate
// texts are treated as paraphrases of the same issue. Tuned to catch
// rewordings without merging distinct concerns.
const jaccardThreshold = 0.55

// tokenSet lowercases, strips punctuation, and returns the distinct words of
// s as a set.
func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, "?.,!;:'\"()[]{}")
		if len(w) < 2 {
			continue
		}
		set[w] = true
	}
	return set
}

// jaccard computes token-set Jaccard similarity between two texts.
func jaccard(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for w := range sa {
		if sb[w] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// dedupe removes later candidates that paraphrase an earlier one. Order
// matters: callers put higher-ranked candidates first so the best phrasing of
// each issue survives.
func dedupe(candidates []string) []string {
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		dup := false
		for _, kept := range out {
			if jaccard(c, kept) >= jaccardThreshold {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// Specificity tuning: concrete figures beat generic phrasing.
const (
	figureBonus      = 8.0
	currencyBonus    = 6.0
	percentBonus     = 6.0
	shortTextLength  = 40
	shortTextPenalty = 10.0
	genericPenalty   = 6.0
)

// genericPhrases mark boilerplate text that asks for nothing in particular.
var genericPhrases = []string{
	"more information", "more details", "additional detail", "it is unclear",
	"further clarification", "learn more", "better understanding",
}

// specificity rewards concrete, checkable text and penalizes vague or overly
// short phrasing.
func specificity(s string) float64 {
	score := 0.0
	if strings.ContainsAny(s, "0123456789") {
		score += figureBonus
	}
	if strings.Contains(s, "$") {
		score += currencyBonus
	}
	if strings.Contains(s, "%") {
		score += percentBonus
	}
	if len(s) < shortTextLength {
		score -= shortTextPenalty
	}
	lower := strings.ToLower(s)
	for _, p := range genericPhrases {
		if strings.Contains(lower, p) {
			score -= genericPenalty
		}
	}
	return score
}
