// Package diligence is the scoring pipeline facade: fact extraction, metric
// merge, external market estimation, orchestrated scoring, calibration, and
// refinement behind one entry point.
package diligence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/diligence-cli/internal/assemble"
	"github.com/sells-group/diligence-cli/internal/calibrate"
	"github.com/sells-group/diligence-cli/internal/config"
	"github.com/sells-group/diligence-cli/internal/learn"
	"github.com/sells-group/diligence-cli/internal/market"
	"github.com/sells-group/diligence-cli/internal/metrics"
	"github.com/sells-group/diligence-cli/internal/model"
	"github.com/sells-group/diligence-cli/internal/refine"
	"github.com/sells-group/diligence-cli/internal/resilience"
	"github.com/sells-group/diligence-cli/internal/scoring"
	"github.com/sells-group/diligence-cli/pkg/anthropic"
)

// Service runs diligence scoring. It holds the single process-wide client
// handle; all per-request state is local to each call.
type Service struct {
	client   anthropic.Client
	learning learn.Provider
	cfg      *config.Config
	retry    resilience.Policy
}

// NewService wires a Service. The learning provider may be nil, which
// disables override-learning calibration.
func NewService(client anthropic.Client, learning learn.Provider, cfg *config.Config) *Service {
	return &Service{
		client:   client,
		learning: learning,
		cfg:      cfg,
		retry: resilience.Policy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff(),
			Multiplier:     cfg.Retry.Multiplier,
			MaxBackoff:     cfg.Retry.MaxBackoff(),
			JitterFraction: cfg.Retry.JitterFraction,
		},
	}
}

// ScoreRequest carries everything a scoring run knows up front. Only the
// schema, company name, and documents are required.
type ScoreRequest struct {
	CompanyName string
	CompanyURL  string
	Sector      string
	Schema      *model.CriteriaSchema

	Documents  []model.Document
	Notes      []model.Note
	Questions  []string
	Enrichment string

	Team      *model.TeamResearch
	Portfolio *model.PortfolioSynergyResearch
	Necessity *model.ProblemNecessityResearch

	// SourceOfTruthMetrics is the caller-persisted metric set from prior
	// runs, merged against freshly derived values.
	SourceOfTruthMetrics *model.MetricSet
	// Previous is the persisted prior score, for override continuity and
	// topic suppression.
	Previous *model.DiligenceScore
}

// ScoreResult is the full output of a scoring run. The caller persists it;
// the pipeline owns no storage.
type ScoreResult struct {
	Score    *model.DiligenceScore
	Metrics  *model.MetricSet
	Metadata model.CompanyMetadata
}

// Score runs the full pipeline. Fatal failures return an error with no
// partial score.
func (s *Service) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	if req.Schema == nil {
		return nil, eris.New("diligence: score request missing criteria schema")
	}
	if err := req.Schema.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, eris.New("diligence: score request missing company name")
	}

	corpus := metrics.Corpus{Documents: req.Documents, Notes: req.Notes}
	facts := metrics.FactLines(corpus)
	raiseEvidence := metrics.HasRaiseEvidence(corpus)

	derived := metrics.Extract(corpus, time.Now().UTC())
	merged := metrics.Merge(req.SourceOfTruthMetrics, derived)
	guardFundingMetric(merged, raiseEvidence)

	intel := s.estimator().Estimate(ctx, market.Request{
		CompanyName:     req.CompanyName,
		CompanyURL:      req.CompanyURL,
		Sector:          req.Sector,
		CompanyClaimTAM: metricValue(merged, model.MetricTAM),
		ResearchText:    corpus.Text() + "\n" + req.Enrichment,
	})

	orch := scoring.NewOrchestrator(s.client, s.cfg.Anthropic, s.cfg.Scoring, s.retry)
	raw, mode, err := orch.Score(ctx, assemble.Input{
		CompanyName: req.CompanyName,
		CompanyURL:  req.CompanyURL,
		Schema:      req.Schema,
		Metrics:     merged,
		Intel:       intel,
		Documents:   req.Documents,
		Notes:       req.Notes,
		Facts:       facts,
		Questions:   req.Questions,
		Enrichment:  req.Enrichment,
		Team:        req.Team,
		Portfolio:   req.Portfolio,
		Necessity:   req.Necessity,
		Previous:    req.Previous,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "diligence: score %s", req.CompanyName)
	}
	orch.Usage.LogCost(s.cfg.Anthropic.ScoringModel, "score "+string(mode))

	cats := scoring.Normalize(raw, req.Schema)
	carryOverrides(cats, req.Previous)

	cats = calibrate.Run(cats, calibrate.Context{
		Schema:          req.Schema,
		Intel:           intel,
		Team:            req.Team,
		Portfolio:       req.Portfolio,
		Necessity:       req.Necessity,
		OverrideStats:   s.overrideStats(ctx),
		RaiseEvidence:   raiseEvidence,
		TractionSignals: metrics.TractionSignals(corpus),
		HasARR:          merged.ARR.Usable(),
	})

	refined := refine.Refine(refine.Input{
		Categories:       cats,
		ServiceConcerns:  raw.Thesis.Concerns,
		ServiceQuestions: raw.FollowUpQuestions,
		Previous:         req.Previous,
	})

	score := &model.DiligenceScore{
		Overall:     model.OverallScore(cats),
		Categories:  cats,
		DataQuality: model.Clamp(raw.DataQuality, 0, 100),
		ScoredAt:    time.Now().UTC(),
		ThesisAnswers: model.ThesisAnswers{
			Summary:   raw.Thesis.Summary,
			Strengths: raw.Thesis.Strengths,
			Concerns:  refined.Concerns,
		},
		FollowUpQuestions:          refined.Questions,
		ExternalMarketIntelligence: intel,
		SuppressedTopics:           refined.SuppressedTopics,
	}
	if req.Previous != nil {
		carryThesis(&score.ThesisAnswers, req.Previous.ThesisAnswers)
		score.RescoreExplanation = fmt.Sprintf("Overall moved %.0f -> %.0f on rescore (%s mode).",
			req.Previous.Overall, score.Overall, mode)
	}

	zap.L().Info("diligence: scoring complete",
		zap.String("company", req.CompanyName),
		zap.String("mode", string(mode)),
		zap.Float64("overall", score.Overall),
		zap.Float64("data_quality", score.DataQuality),
	)

	return &ScoreResult{
		Score:   score,
		Metrics: merged,
		Metadata: model.CompanyMetadata{
			Name:     req.CompanyName,
			URL:      req.CompanyURL,
			Location: metricValue(merged, model.MetricLocation),
			Sector:   req.Sector,
		},
	}, nil
}

// TAMRequest is the standalone market-analysis entry point's input.
type TAMRequest struct {
	CompanyName string
	CompanyURL  string
	Sector      string
	Documents   []model.Document
	Notes       []model.Note
}

// RunTAMAnalysis runs metric extraction plus the tiered market estimator
// without scoring.
func (s *Service) RunTAMAnalysis(ctx context.Context, req TAMRequest) (*model.ExternalMarketIntelligence, error) {
	if strings.TrimSpace(req.CompanyName) == "" {
		return nil, eris.New("diligence: tam request missing company name")
	}
	corpus := metrics.Corpus{Documents: req.Documents, Notes: req.Notes}
	derived := metrics.Extract(corpus, time.Now().UTC())

	intel := s.estimator().Estimate(ctx, market.Request{
		CompanyName:     req.CompanyName,
		CompanyURL:      req.CompanyURL,
		Sector:          req.Sector,
		CompanyClaimTAM: metricValue(derived, model.MetricTAM),
		ResearchText:    corpus.Text(),
	})
	return intel, nil
}

// ExtractStructuredFacts runs the deterministic extractors alone: fact lines
// plus the derived metric set, no service calls.
func (s *Service) ExtractStructuredFacts(documents []model.Document, notes []model.Note) ([]string, *model.MetricSet) {
	corpus := metrics.Corpus{Documents: documents, Notes: notes}
	return metrics.FactLines(corpus), metrics.Extract(corpus, time.Now().UTC())
}

func (s *Service) estimator() *market.Estimator {
	return market.NewEstimator(s.client, s.cfg.Anthropic.EstimatorModel, s.retry)
}

// overrideStats loads historical override aggregates. Learning-store failures
// degrade to no calibration, not a failed run.
func (s *Service) overrideStats(ctx context.Context) []calibrate.OverrideStat {
	if s.learning == nil {
		return nil
	}
	rows, err := s.learning.OverrideCalibrations(ctx)
	if err != nil {
		zap.L().Warn("diligence: override history unavailable", zap.Error(err))
		return nil
	}
	out := make([]calibrate.OverrideStat, len(rows))
	for i, r := range rows {
		out[i] = calibrate.OverrideStat{
			Category:    r.Category,
			AvgDelta:    r.AvgDelta,
			SampleCount: r.SampleCount,
		}
	}
	return out
}

// guardFundingMetric forces an auto-derived funding amount to unknown when
// the corpus carries no explicit raise evidence. Manual entries stand.
func guardFundingMetric(m *model.MetricSet, raiseEvidence bool) {
	if raiseEvidence {
		return
	}
	v := m.Get(model.MetricFundingAmount)
	if v.Usable() && v.Source != model.SourceManual {
		m.Set(model.MetricFundingAmount, &model.MetricValue{
			Value:        "unknown",
			Source:       model.SourceAuto,
			SourceDetail: "raise_evidence_guard",
			UpdatedAt:    v.UpdatedAt,
		})
	}
}

// carryThesis keeps the prior run's thesis narrative wherever the current
// synthesis came back empty, so a degraded rescore never erases it.
func carryThesis(cur *model.ThesisAnswers, prev model.ThesisAnswers) {
	if cur.Summary == "" {
		cur.Summary = prev.Summary
	}
	if len(cur.Strengths) == 0 {
		cur.Strengths = prev.Strengths
	}
	if len(cur.Concerns) == 0 {
		cur.Concerns = prev.Concerns
	}
}

// carryOverrides copies manual overrides and analyst perspectives from the
// prior score onto the matching criteria of a fresh run.
func carryOverrides(cats []model.CategoryScore, prev *model.DiligenceScore) {
	if prev == nil {
		return
	}
	for i := range cats {
		prevCat := findCategory(prev.Categories, cats[i].Category)
		if prevCat == nil {
			continue
		}
		for j := range cats[i].Criteria {
			cr := &cats[i].Criteria[j]
			prevCr := findCriterion(prevCat.Criteria, cr.Name)
			if prevCr == nil {
				continue
			}
			if prevCr.ManualOverride != nil {
				v := *prevCr.ManualOverride
				cr.ManualOverride = &v
				cr.OverrideReason = prevCr.OverrideReason
			}
			if prevCr.UserPerspective != "" {
				cr.UserPerspective = prevCr.UserPerspective
			}
		}
	}
}

func findCategory(cats []model.CategoryScore, name string) *model.CategoryScore {
	for i := range cats {
		if strings.EqualFold(cats[i].Category, name) {
			return &cats[i]
		}
	}
	return nil
}

func findCriterion(crs []model.CriterionScore, name string) *model.CriterionScore {
	for i := range crs {
		if strings.EqualFold(crs[i].Name, name) {
			return &crs[i]
		}
	}
	return nil
}

func metricValue(m *model.MetricSet, f model.MetricField) string {
	if v := m.Get(f); v.Usable() {
		return v.Value
	}
	return ""
}
