package metrics

import "regexp"

// tractionRe catches pre-revenue traction language: pilots, proofs of
// concept, letters of intent, design partners, and developer adoption.
var tractionRe = regexp.MustCompile(`(?i)\b(pilots?|proof[- ]of[- ]concept|pocs?|lois?|letters? of intent|waitlist|design partners?|beta (?:users|customers|testers)|github stars|downloads|sign[- ]?ups|active (?:users|developers)|developer adoption)\b`)

// maxTractionSignals bounds the cited signals.
const maxTractionSignals = 8

// TractionSignals returns distinct corpus lines carrying early-traction
// language. Projection lines don't count; a planned pilot is not traction.
func TractionSignals(c Corpus) []string {
	var out []string
	seen := map[string]bool{}
	for _, line := range c.Lines() {
		if seen[line] || !tractionRe.MatchString(line) || projectionRe.MatchString(line) {
			continue
		}
		seen[line] = true
		out = append(out, line)
		if len(out) >= maxTractionSignals {
			break
		}
	}
	return out
}
