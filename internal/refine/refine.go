package refine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

// Output caps.
const (
	maxConcerns  = 6
	maxQuestions = 8
	// synthesisDepth is how many top-materiality criteria get synthesized
	// concern/question text in addition to the service's own candidates.
	synthesisDepth = 5
)

// Input carries the refinement sources: calibrated categories, the service's
// own qualitative candidates, and the prior score for suppression continuity.
type Input struct {
	Categories       []model.CategoryScore
	ServiceConcerns  []string
	ServiceQuestions []string
	Previous         *model.DiligenceScore
}

// Output is the refined qualitative layer.
type Output struct {
	Concerns         []string
	Questions        []string
	SuppressedTopics []string
}

// Refine merges service-proposed and synthesized concerns/questions,
// deduplicates paraphrases, ranks by specificity plus the materiality of the
// criteria they reference, and filters topics the analyst has previously
// dismissed.
func Refine(in Input) Output {
	ranked := rankCriteria(in.Categories)
	suppressed := suppressedTopics(in.Previous)

	concerns := rankCandidates(collectConcerns(in, ranked), ranked)
	questions := rankCandidates(collectQuestions(in, ranked), ranked)

	concerns = filterSuppressed(concerns, suppressed, in.Categories)
	questions = filterSuppressed(questions, suppressed, in.Categories)

	concerns = dedupe(concerns)
	questions = dedupe(questions)

	if len(concerns) > maxConcerns {
		concerns = concerns[:maxConcerns]
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return Output{Concerns: concerns, Questions: questions, SuppressedTopics: suppressed}
}

// collectConcerns gathers service candidates plus synthesized concern text
// for the most material criteria. Synthesis only reuses the criterion's own
// evidence or missing-data text; it never invents claims.
func collectConcerns(in Input, ranked []rankedCriterion) []string {
	out := append([]string(nil), in.ServiceConcerns...)
	for i, rc := range ranked {
		if i >= synthesisDepth {
			break
		}
		if text := synthesizeConcern(rc); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func collectQuestions(in Input, ranked []rankedCriterion) []string {
	out := append([]string(nil), in.ServiceQuestions...)
	for i, rc := range ranked {
		if i >= synthesisDepth {
			break
		}
		out = append(out, rc.criterion.FollowUpQuestions...)
		if q := synthesizeQuestion(rc); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func synthesizeConcern(rc rankedCriterion) string {
	cr := rc.criterion
	if cr.EffectiveScore() >= 70 {
		return ""
	}
	if cr.HasRealEvidence() {
		return fmt.Sprintf("%s / %s scored %.0f: %s", rc.category, cr.Name, cr.EffectiveScore(), firstRealEvidence(cr))
	}
	if len(cr.MissingData) > 0 {
		return fmt.Sprintf("%s / %s lacks support: %s", rc.category, cr.Name, cr.MissingData[0])
	}
	return ""
}

func synthesizeQuestion(rc rankedCriterion) string {
	cr := rc.criterion
	if len(cr.MissingData) == 0 {
		return ""
	}
	item := strings.TrimRight(cr.MissingData[0], ".")
	return fmt.Sprintf("Can you provide %s?", lowerFirst(item))
}

func firstRealEvidence(cr model.CriterionScore) string {
	for _, e := range cr.Evidence {
		if e != "" && e != model.NoEvidenceSentinel {
			return e
		}
	}
	return ""
}

// rankCandidates orders candidates by specificity plus the materiality of the
// highest-materiality criterion they textually reference.
func rankCandidates(candidates []string, ranked []rankedCriterion) []string {
	type scored struct {
		text  string
		score float64
	}
	out := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		s := specificity(c)
		lower := strings.ToLower(c)
		for _, rc := range ranked {
			if strings.Contains(lower, strings.ToLower(rc.criterion.Name)) {
				s += rc.materiality / 2
				break
			}
		}
		out = append(out, scored{text: c, score: s})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].score > out[j-1].score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	texts := make([]string, len(out))
	for i, s := range out {
		texts[i] = s.text
	}
	return texts
}

// suppressionRe pulls the dismissed topic out of override reasons like
// "not concerned about churn" or "not worried about the competition here".
var suppressionRe = regexp.MustCompile(`(?i)\bnot (?:concerned|worried)\s+about\s+(?:the\s+)?([a-z0-9][a-z0-9 -]{1,40}?)(?:\s+here)?[.,;]?$`)

// suppressedTopics extracts dismissed risk topics from prior-score override
// reasons. An analyst dismissing a concern once silences that topic on later
// rescores.
func suppressedTopics(prev *model.DiligenceScore) []string {
	if prev == nil {
		return nil
	}
	topics := append([]string(nil), prev.SuppressedTopics...)
	seen := map[string]bool{}
	for _, t := range topics {
		seen[strings.ToLower(t)] = true
	}
	for _, cat := range prev.Categories {
		for _, cr := range cat.Criteria {
			if cr.OverrideReason == "" {
				continue
			}
			for _, line := range strings.Split(cr.OverrideReason, "\n") {
				m := suppressionRe.FindStringSubmatch(strings.TrimSpace(line))
				if m == nil {
					continue
				}
				topic := strings.ToLower(strings.TrimSpace(m[1]))
				if topic != "" && !seen[topic] {
					seen[topic] = true
					topics = append(topics, topic)
				}
			}
		}
	}
	return topics
}

// filterSuppressed drops candidates mentioning a suppressed topic, unless a
// criterion on that topic now carries contradicted evidence, which reopens it.
func filterSuppressed(candidates, topics []string, cats []model.CategoryScore) []string {
	if len(topics) == 0 {
		return candidates
	}
	var out []string
	for _, c := range candidates {
		lower := strings.ToLower(c)
		drop := false
		for _, t := range topics {
			if strings.Contains(lower, t) && !topicContradicted(t, cats) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, c)
		}
	}
	return out
}

// topicContradicted reports whether any criterion mentioning the topic now
// has contradicted evidence.
func topicContradicted(topic string, cats []model.CategoryScore) bool {
	for _, cat := range cats {
		for _, cr := range cat.Criteria {
			if cr.EvidenceStatus != model.EvidenceContradicted {
				continue
			}
			if strings.Contains(strings.ToLower(cr.Name), topic) ||
				strings.Contains(strings.ToLower(cr.Reasoning), topic) {
				return true
			}
		}
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
