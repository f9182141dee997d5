package assemble

import "strings"

// relevanceTruncate compacts oversized content by splitting it into sections,
// scoring each by keyword overlap, and keeping the highest-scoring sections
// within the budget. Falls back to a hard cut when the content has no usable
// sections.
func relevanceTruncate(content string, keywords []string, limit int) string {
	if len(content) <= limit {
		return content
	}
	if len(keywords) == 0 {
		return content[:limit]
	}

	sections := splitSections(content)
	if len(sections) <= 1 {
		return content[:limit]
	}

	type scoredSection struct {
		idx   int
		text  string
		score int
	}
	scored := make([]scoredSection, len(sections))
	for i, sec := range sections {
		lower := strings.ToLower(sec)
		score := 0
		for _, kw := range keywords {
			score += strings.Count(lower, kw)
		}
		scored[i] = scoredSection{idx: i, text: sec, score: score}
	}

	// Sort by score descending; section counts are small.
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].score > scored[j-1].score; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}

	selected := make(map[int]bool)
	totalLen := 0
	for _, s := range scored {
		if totalLen+len(s.text) > limit {
			continue
		}
		selected[s.idx] = true
		totalLen += len(s.text)
	}
	if len(selected) == 0 {
		return content[:limit]
	}

	// Reassemble in original order.
	var result strings.Builder
	for i, sec := range sections {
		if selected[i] {
			if result.Len() > 0 {
				result.WriteString("\n\n")
			}
			result.WriteString(sec)
		}
	}
	return result.String()
}

// splitSections splits content by markdown headers or paragraph breaks.
func splitSections(content string) []string {
	var sections []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") || (line == "" && current.Len() > 0) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sections = append(sections, s)
			}
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sections = append(sections, s)
	}
	return sections
}

// stopWords excluded from keyword extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"were": true, "been": true, "have": true, "has": true, "had": true,
	"this": true, "that": true, "with": true, "from": true, "what": true,
	"how": true, "does": true, "which": true, "where": true, "when": true,
	"who": true, "why": true, "can": true, "will": true, "not": true,
}

// extractKeywords returns deduplicated lowercase words of 3+ characters.
func extractKeywords(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	var keywords []string
	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.Trim(w, "?.,!;:'\"()[]{}")
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}
