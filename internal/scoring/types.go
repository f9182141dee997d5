// Package scoring issues structured scoring requests to the reasoning
// service and normalizes its free-form responses onto the canonical criteria
// schema.
package scoring

// RawCriterion mirrors one criterion in the service's JSON response. Fields
// are permissive: the normalization layer supplies defaults.
type RawCriterion struct {
	Name              string   `json:"name"`
	Score             float64  `json:"score"`
	Confidence        *float64 `json:"confidence"`
	EvidenceStatus    string   `json:"evidence_status"`
	Reasoning         string   `json:"reasoning"`
	Evidence          []string `json:"evidence"`
	MissingData       []string `json:"missing_data"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	Answer            string   `json:"answer"`
}

// RawCategory mirrors one category in the service's JSON response.
type RawCategory struct {
	Name     string         `json:"name"`
	Score    float64        `json:"score"`
	Criteria []RawCriterion `json:"criteria"`
}

// RawThesis mirrors the qualitative synthesis fields.
type RawThesis struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// RawScore is the service's full scoring response before normalization.
// Primary mode produces it in one call; chunked mode assembles it from
// per-category calls plus a synthesis pass. Both converge here.
type RawScore struct {
	Categories        []RawCategory `json:"categories"`
	Thesis            RawThesis     `json:"thesis"`
	DataQuality       float64       `json:"data_quality"`
	FollowUpQuestions []string      `json:"follow_up_questions"`
}

// Mode records which scoring path produced a result.
type Mode string

const (
	ModePrimary Mode = "primary"
	ModeChunked Mode = "chunked"
)
