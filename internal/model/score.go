package model

import (
	"math"
	"time"
)

// EvidenceStatus labels how well the cited evidence supports a criterion
// score. It is distinct from the numeric confidence score and bounds the
// maximum permissible score for the criterion.
type EvidenceStatus string

const (
	EvidenceSupported       EvidenceStatus = "supported"
	EvidenceWeaklySupported EvidenceStatus = "weakly_supported"
	EvidenceUnknown         EvidenceStatus = "unknown"
	EvidenceContradicted    EvidenceStatus = "contradicted"
)

// Valid reports whether s is one of the four recognized statuses.
func (s EvidenceStatus) Valid() bool {
	switch s {
	case EvidenceSupported, EvidenceWeaklySupported, EvidenceUnknown, EvidenceContradicted:
		return true
	}
	return false
}

// NoEvidenceSentinel is the default evidence line when the reasoning service
// cites nothing.
const NoEvidenceSentinel = "No direct evidence cited."

// CriterionScore is a single scored question within a weighted category.
type CriterionScore struct {
	Name              string         `json:"name"`
	Score             float64        `json:"score"`
	Confidence        float64        `json:"confidence"`
	EvidenceStatus    EvidenceStatus `json:"evidence_status"`
	Reasoning         string         `json:"reasoning,omitempty"`
	Evidence          []string       `json:"evidence,omitempty"`
	MissingData       []string       `json:"missing_data,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
	ManualOverride    *float64       `json:"manual_override,omitempty"`
	OverrideReason    string         `json:"override_reason,omitempty"`
	UserPerspective   string         `json:"user_perspective,omitempty"`
	Answer            string         `json:"answer,omitempty"`
}

// EffectiveScore is the manual override when set, otherwise the model score.
func (c CriterionScore) EffectiveScore() float64 {
	if c.ManualOverride != nil {
		return *c.ManualOverride
	}
	return c.Score
}

// HasRealEvidence reports whether any evidence line is more than the sentinel.
func (c CriterionScore) HasRealEvidence() bool {
	for _, e := range c.Evidence {
		if e != "" && e != NoEvidenceSentinel {
			return true
		}
	}
	return false
}

// Evidence-strength score bounds. A contradicted criterion never scores above
// ContradictedScoreCap; a weakly-supported one with no cited evidence is
// bounded by the insufficiency cap plus slack, at most WeakEvidenceScoreCap.
const (
	ContradictedScoreCap = 40
	WeakEvidenceScoreCap = 70
	WeakEvidenceCapSlack = 10
)

// ApplyEvidenceCap bounds Score by the strength of the cited evidence.
// insufficiencyCap is the per-criterion cap from the schema. The manual
// override is the analyst's call and is not touched.
func (c *CriterionScore) ApplyEvidenceCap(insufficiencyCap float64) {
	switch c.EvidenceStatus {
	case EvidenceContradicted:
		if c.Score > ContradictedScoreCap {
			c.Score = ContradictedScoreCap
		}
	case EvidenceUnknown:
		if c.Score > insufficiencyCap {
			c.Score = insufficiencyCap
		}
	case EvidenceWeaklySupported:
		if c.HasRealEvidence() {
			return
		}
		limit := insufficiencyCap + WeakEvidenceCapSlack
		if limit > WeakEvidenceScoreCap {
			limit = WeakEvidenceScoreCap
		}
		if c.Score > limit {
			c.Score = limit
		}
	}
}

// CategoryScore aggregates the criteria of one weighted category.
type CategoryScore struct {
	Category      string           `json:"category"`
	Score         float64          `json:"score"`
	Weight        float64          `json:"weight"`
	WeightedScore float64          `json:"weighted_score"`
	Criteria      []CriterionScore `json:"criteria"`
}

// Recompute sets Score to the rounded mean of criterion effective scores and
// refreshes WeightedScore. The service's own category score is never trusted
// verbatim.
func (c *CategoryScore) Recompute() {
	if len(c.Criteria) > 0 {
		sum := 0.0
		for _, cr := range c.Criteria {
			sum += cr.EffectiveScore()
		}
		c.Score = math.Round(sum / float64(len(c.Criteria)))
	}
	c.WeightedScore = c.Score * c.Weight / 100
}

// ThesisAnswers holds the qualitative synthesis of a scoring run.
type ThesisAnswers struct {
	Summary   string   `json:"summary,omitempty"`
	Strengths []string `json:"strengths,omitempty"`
	Concerns  []string `json:"concerns,omitempty"`
}

// DiligenceScore is the final scored output of a run.
type DiligenceScore struct {
	Overall                    float64                     `json:"overall"`
	Categories                 []CategoryScore             `json:"categories"`
	DataQuality                float64                     `json:"data_quality"`
	ScoredAt                   time.Time                   `json:"scored_at"`
	ThesisAnswers              ThesisAnswers               `json:"thesis_answers"`
	FollowUpQuestions          []string                    `json:"follow_up_questions,omitempty"`
	ExternalMarketIntelligence *ExternalMarketIntelligence `json:"external_market_intelligence,omitempty"`
	RescoreExplanation         string                      `json:"rescore_explanation,omitempty"`
	SuppressedTopics           []string                    `json:"suppressed_topics,omitempty"`
}

// OverallScore returns the rounded weighted mean of category scores. This is
// the one non-negotiable aggregation rule: the overall is never taken from
// the reasoning service.
func OverallScore(cats []CategoryScore) float64 {
	totalWeight := 0.0
	weighted := 0.0
	for _, c := range cats {
		totalWeight += c.Weight
		weighted += c.Score * c.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return math.Round(weighted / totalWeight)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
