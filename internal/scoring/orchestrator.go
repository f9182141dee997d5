package scoring

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/diligence-cli/internal/assemble"
	"github.com/sells-group/diligence-cli/internal/config"
	"github.com/sells-group/diligence-cli/internal/resilience"
	"github.com/sells-group/diligence-cli/pkg/anthropic"
)

// Orchestrator drives the scoring call strategy: one full-schema request in
// primary mode, degrading to sequential per-category requests plus a synthesis
// request when the service rejects the primary call for capacity reasons.
type Orchestrator struct {
	client          anthropic.Client
	model           string
	maxTokens       int64
	temperature     float64
	retry           resilience.Policy
	limiter         *rate.Limiter
	maxContextChars int

	// Usage accumulates token consumption across all calls of a run.
	Usage anthropic.TokenUsage
}

// NewOrchestrator builds an orchestrator from configuration. The rate limiter
// paces chunked-mode requests so the fallback does not immediately retrip the
// limit that triggered it.
func NewOrchestrator(client anthropic.Client, anth config.AnthropicConfig, scoring config.ScoringConfig, retry resilience.Policy) *Orchestrator {
	return &Orchestrator{
		client:          client,
		model:           anth.ScoringModel,
		maxTokens:       anth.MaxTokens,
		temperature:     anth.Temperature,
		retry:           retry,
		limiter:         rate.NewLimiter(rate.Every(scoring.ChunkDelay()), 1),
		maxContextChars: scoring.MaxContextChars,
	}
}

// Score runs the scoring strategy and returns the raw payload plus the mode
// that produced it. Capacity failures in primary mode trigger chunked mode;
// failures in chunked mode are fatal since there is no lower tier.
func (o *Orchestrator) Score(ctx context.Context, in assemble.Input) (*RawScore, Mode, error) {
	raw, err := o.scorePrimary(ctx, in)
	if err == nil {
		return raw, ModePrimary, nil
	}
	if !resilience.IsCapacity(err) {
		return nil, ModePrimary, err
	}

	zap.L().Warn("scoring: primary call exhausted capacity retries, entering chunked mode",
		zap.String("company", in.CompanyName),
		zap.Error(err),
	)

	raw, err = o.scoreChunked(ctx, in)
	if err != nil {
		return nil, ModeChunked, err
	}
	return raw, ModeChunked, nil
}

func (o *Orchestrator) scorePrimary(ctx context.Context, in assemble.Input) (*RawScore, error) {
	pctx := assemble.Build(in, o.maxContextChars)
	prompt := buildPrimaryPrompt(in.Schema, pctx.Full())

	resp, err := o.call(ctx, prompt, "score primary")
	if err != nil {
		return nil, err
	}

	var raw RawScore
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &raw); err != nil {
		// A malformed response is not a capacity problem. Normalization fills
		// schema defaults for whatever is missing, so salvage what parses and
		// log the rest.
		zap.L().Warn("scoring: malformed primary response, normalizing defaults",
			zap.String("company", in.CompanyName),
			zap.Error(err),
		)
		return &RawScore{}, nil
	}
	return &raw, nil
}

// scoreChunked scores one category per request, paced by the limiter, then
// issues a synthesis request for the thesis. The reassembled payload has the
// same shape as a primary response, so everything downstream is mode-blind.
func (o *Orchestrator) scoreChunked(ctx context.Context, in assemble.Input) (*RawScore, error) {
	// Per-category context gets a proportionally smaller budget.
	catBudget := o.maxContextChars / 2

	raw := &RawScore{}
	for _, cat := range in.Schema.Categories {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "scoring: chunk pacing interrupted")
		}

		pctx := assemble.BuildForCategory(in, cat, catBudget)
		prompt := buildCategoryPrompt(cat, pctx.Full())

		resp, err := o.call(ctx, prompt, "score category "+cat.Name)
		if err != nil {
			return nil, eris.Wrapf(err, "scoring: chunked call for category %q", cat.Name)
		}

		var rawCat RawCategory
		if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &rawCat); err != nil {
			zap.L().Warn("scoring: malformed category response, normalizing defaults",
				zap.String("category", cat.Name),
				zap.Error(err),
			)
			rawCat = RawCategory{Name: cat.Name}
		}
		if strings.TrimSpace(rawCat.Name) == "" {
			rawCat.Name = cat.Name
		}
		raw.Categories = append(raw.Categories, rawCat)
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "scoring: chunk pacing interrupted")
	}
	resp, err := o.call(ctx, buildSynthesisPrompt(in.CompanyName, raw.Categories), "score synthesis")
	if err != nil {
		return nil, eris.Wrap(err, "scoring: synthesis call")
	}

	var synth struct {
		Thesis            RawThesis `json:"thesis"`
		DataQuality       float64   `json:"data_quality"`
		FollowUpQuestions []string  `json:"follow_up_questions"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &synth); err != nil {
		zap.L().Warn("scoring: malformed synthesis response", zap.Error(err))
	}
	raw.Thesis = synth.Thesis
	raw.DataQuality = synth.DataQuality
	raw.FollowUpQuestions = synth.FollowUpQuestions

	return raw, nil
}

func (o *Orchestrator) call(ctx context.Context, prompt, operation string) (*anthropic.MessageResponse, error) {
	p := o.retry
	p.OnRetry = resilience.RetryLogger(operation)

	temp := o.temperature
	resp, err := resilience.Execute(ctx, p, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return o.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       o.model,
			MaxTokens:   o.maxTokens,
			System:      scoringSystem,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
	})
	if err != nil {
		return nil, err
	}
	o.Usage.Add(resp.Usage)
	return resp, nil
}

// cleanJSON extracts a JSON object from text that may carry markdown fences
// or prose around the object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
