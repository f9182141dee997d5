package diligence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/diligence-cli/internal/config"
	"github.com/sells-group/diligence-cli/internal/model"
	"github.com/sells-group/diligence-cli/internal/resilience"
	"github.com/sells-group/diligence-cli/pkg/anthropic"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: text}}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{ScoringModel: "test-model", EstimatorModel: "test-model", MaxTokens: 1024},
		Retry:     config.RetryConfig{MaxAttempts: 1, InitialBackoffMS: 1, Multiplier: 2, MaxBackoffMS: 2},
		Scoring:   config.ScoringConfig{MaxContextChars: 8000, ChunkDelayMS: 1},
	}
}

func testSchema() *model.CriteriaSchema {
	return &model.CriteriaSchema{Categories: []model.CategorySpec{
		{Name: "Team", Weight: 40, Criteria: []model.CriterionSpec{
			{Name: "Founder Experience"},
			{Name: "Role Coverage"},
		}},
		{Name: "Market", Weight: 60, Criteria: []model.CriterionSpec{
			{Name: "TAM Credibility"},
		}},
	}}
}

const estimatorResponse = `{"tam": "$12B", "estimated_cagr": "9%", "growth_band": "moderate",
	"growth_evidence": ["analyst report"], "competitive_threat": 30, "confidence": 70}`

const teamCategoryJSON = `{"name": "Team", "score": 62, "criteria": [
	{"name": "Founder Experience", "score": 65, "confidence": 70, "evidence_status": "supported", "evidence": ["two prior exits"]},
	{"name": "Role Coverage", "score": 58, "confidence": 60, "evidence_status": "supported", "evidence": ["CTO verified"]}
]}`

const marketCategoryJSON = `{"name": "Market", "score": 70, "criteria": [
	{"name": "TAM Credibility", "score": 70, "confidence": 75, "evidence_status": "supported", "evidence": ["analyst report"]}
]}`

const synthesisJSON = `{"thesis": {"summary": "Capable team in a real market.", "strengths": ["team"], "concerns": ["Competitive pressure from incumbents is intensifying."]},
	"data_quality": 72, "follow_up_questions": ["What are the latest churn figures by cohort?"]}`

const primaryScoringResponse = `{
	"categories": [` + teamCategoryJSON + `, ` + marketCategoryJSON + `],
	"thesis": {"summary": "Capable team in a real market.", "strengths": ["team"], "concerns": ["Competitive pressure from incumbents is intensifying."]},
	"data_quality": 72,
	"follow_up_questions": ["What are the latest churn figures by cohort?"]
}`

func scoreRequest() ScoreRequest {
	return ScoreRequest{
		CompanyName: "Acme",
		CompanyURL:  "https://acme.dev",
		Sector:      "compliance",
		Schema:      testSchema(),
		Documents: []model.Document{
			{Name: "deck.md", Text: "Founder has two prior exits. The company sells compliance software."},
		},
	}
}

func TestScorePrimaryPipeline(t *testing.T) {
	client := &fakeClient{responses: []string{estimatorResponse, primaryScoringResponse}}
	svc := NewService(client, nil, testConfig())

	res, err := svc.Score(context.Background(), scoreRequest())
	require.NoError(t, err)
	require.NotNil(t, res.Score)

	score := res.Score
	require.Len(t, score.Categories, 2)
	assert.Equal(t, "Team", score.Categories[0].Category)
	assert.Equal(t, "Market", score.Categories[1].Category)

	// Calibration recomputes every category; overall is the weighted mean.
	assert.InDelta(t, 62, score.Categories[0].Score, 0.01)
	assert.InDelta(t, 70, score.Categories[1].Score, 0.01)
	assert.InDelta(t, 67, score.Overall, 0.01)
	assert.InDelta(t, 72, score.DataQuality, 0.01)

	assert.Equal(t, "Capable team in a real market.", score.ThesisAnswers.Summary)
	assert.NotNil(t, score.ExternalMarketIntelligence)
	assert.Equal(t, "$12B", score.ExternalMarketIntelligence.TAM.IndependentTAM)
	assert.Empty(t, score.RescoreExplanation)

	assert.Equal(t, "Acme", res.Metadata.Name)
	assert.Equal(t, "compliance", res.Metadata.Sector)
}

func TestScoreChunkedFallbackSameShape(t *testing.T) {
	primary := &fakeClient{responses: []string{estimatorResponse, primaryScoringResponse}}
	svc := NewService(primary, nil, testConfig())
	primaryRes, err := svc.Score(context.Background(), scoreRequest())
	require.NoError(t, err)

	chunked := &fakeClient{
		errs:      []error{nil, resilience.NewRateLimitError(assert.AnError, 429)},
		responses: []string{estimatorResponse, "", teamCategoryJSON, marketCategoryJSON, synthesisJSON},
	}
	svc = NewService(chunked, nil, testConfig())
	chunkedRes, err := svc.Score(context.Background(), scoreRequest())
	require.NoError(t, err)
	assert.Equal(t, 5, chunked.calls)

	// The degraded path converges to the same scores and structure.
	assert.Equal(t, primaryRes.Score.Categories, chunkedRes.Score.Categories)
	assert.InDelta(t, primaryRes.Score.Overall, chunkedRes.Score.Overall, 0.01)
	assert.InDelta(t, primaryRes.Score.DataQuality, chunkedRes.Score.DataQuality, 0.01)
	assert.Empty(t, chunkedRes.Score.RescoreExplanation)
}

func TestScoreFatalErrorReturnsNoPartialScore(t *testing.T) {
	client := &fakeClient{errs: []error{nil, assert.AnError}, responses: []string{estimatorResponse}}
	svc := NewService(client, nil, testConfig())

	res, err := svc.Score(context.Background(), scoreRequest())
	require.Error(t, err)
	assert.Nil(t, res)
}

func TestScoreValidatesRequest(t *testing.T) {
	svc := NewService(nil, nil, testConfig())

	_, err := svc.Score(context.Background(), ScoreRequest{CompanyName: "Acme"})
	assert.Error(t, err, "schema required")

	_, err = svc.Score(context.Background(), ScoreRequest{Schema: testSchema()})
	assert.Error(t, err, "company name required")

	badSchema := &model.CriteriaSchema{Categories: []model.CategorySpec{
		{Name: "Team", Weight: 10, Criteria: []model.CriterionSpec{{Name: "a"}}},
	}}
	_, err = svc.Score(context.Background(), ScoreRequest{CompanyName: "Acme", Schema: badSchema})
	assert.Error(t, err, "weights must sum to 100")
}

func TestScoreRescoreCarriesOverridesAndExplanation(t *testing.T) {
	client := &fakeClient{responses: []string{estimatorResponse, primaryScoringResponse}}
	svc := NewService(client, nil, testConfig())

	req := scoreRequest()
	override := 80.0
	req.Previous = &model.DiligenceScore{
		Overall: 60,
		Categories: []model.CategoryScore{
			{Category: "Team", Criteria: []model.CriterionScore{
				{Name: "Founder Experience", Score: 50, ManualOverride: &override,
					OverrideReason: "Backed this founder before."},
			}},
		},
	}

	res, err := svc.Score(context.Background(), req)
	require.NoError(t, err)

	cr := res.Score.Categories[0].Criteria[0]
	require.NotNil(t, cr.ManualOverride)
	assert.InDelta(t, 80, *cr.ManualOverride, 0.01)
	assert.Equal(t, "Backed this founder before.", cr.OverrideReason)

	// Category mean uses the override: round((80+58)/2) = 69.
	assert.InDelta(t, 69, res.Score.Categories[0].Score, 0.01)
	assert.Contains(t, res.Score.RescoreExplanation, "on rescore (primary mode)")
}

func TestScoreRescoreCarriesThesisWhenSynthesisEmpty(t *testing.T) {
	noThesis := `{
		"categories": [` + teamCategoryJSON + `, ` + marketCategoryJSON + `],
		"thesis": {},
		"data_quality": 60
	}`
	client := &fakeClient{responses: []string{estimatorResponse, noThesis}}
	svc := NewService(client, nil, testConfig())

	req := scoreRequest()
	req.Previous = &model.DiligenceScore{
		Overall: 60,
		ThesisAnswers: model.ThesisAnswers{
			Summary:   "Capable team in a real market.",
			Strengths: []string{"team"},
		},
	}

	res, err := svc.Score(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Capable team in a real market.", res.Score.ThesisAnswers.Summary)
	assert.Equal(t, []string{"team"}, res.Score.ThesisAnswers.Strengths)
}

func TestCarryThesisKeepsFreshFields(t *testing.T) {
	cur := model.ThesisAnswers{Summary: "New read on the company."}
	carryThesis(&cur, model.ThesisAnswers{
		Summary:   "Old read.",
		Strengths: []string{"distribution"},
	})

	assert.Equal(t, "New read on the company.", cur.Summary)
	assert.Equal(t, []string{"distribution"}, cur.Strengths)
}

func TestRunTAMAnalysis(t *testing.T) {
	client := &fakeClient{responses: []string{estimatorResponse}}
	svc := NewService(client, nil, testConfig())

	intel, err := svc.RunTAMAnalysis(context.Background(), TAMRequest{
		CompanyName: "Acme",
		Documents:   []model.Document{{Name: "deck.md", Text: "Compliance tooling."}},
	})
	require.NoError(t, err)
	assert.Equal(t, "$12B", intel.TAM.IndependentTAM)

	_, err = svc.RunTAMAnalysis(context.Background(), TAMRequest{})
	assert.Error(t, err)
}

func TestExtractStructuredFacts(t *testing.T) {
	svc := NewService(nil, nil, testConfig())

	facts, metricSet := svc.ExtractStructuredFacts([]model.Document{
		{Name: "metrics.md", Text: "ARR grew from $1M in 2023 to $1.8M in 2024."},
	}, nil)

	assert.NotEmpty(t, facts)
	require.NotNil(t, metricSet)
	assert.True(t, metricSet.ARR.Usable())
}

func TestGuardFundingMetric(t *testing.T) {
	m := &model.MetricSet{FundingAmount: &model.MetricValue{Value: "$5M", Source: model.SourceAuto}}
	guardFundingMetric(m, false)
	assert.Equal(t, "unknown", m.FundingAmount.Value)
	assert.Equal(t, "raise_evidence_guard", m.FundingAmount.SourceDetail)

	m = &model.MetricSet{FundingAmount: &model.MetricValue{Value: "$5M", Source: model.SourceManual}}
	guardFundingMetric(m, false)
	assert.Equal(t, "$5M", m.FundingAmount.Value, "manual entries stand")

	m = &model.MetricSet{FundingAmount: &model.MetricValue{Value: "$5M", Source: model.SourceAuto}}
	guardFundingMetric(m, true)
	assert.Equal(t, "$5M", m.FundingAmount.Value, "documented raises stand")
}

func TestCarryOverridesMatchesCaseInsensitively(t *testing.T) {
	override := 75.0
	cats := []model.CategoryScore{
		{Category: "Team", Criteria: []model.CriterionScore{{Name: "Founder Experience", Score: 50}}},
	}
	prev := &model.DiligenceScore{Categories: []model.CategoryScore{
		{Category: "team", Criteria: []model.CriterionScore{
			{Name: "founder experience", ManualOverride: &override, UserPerspective: "Strong operator."},
		}},
	}}

	carryOverrides(cats, prev)

	cr := cats[0].Criteria[0]
	require.NotNil(t, cr.ManualOverride)
	assert.InDelta(t, 75, *cr.ManualOverride, 0.01)
	assert.Equal(t, "Strong operator.", cr.UserPerspective)
}
