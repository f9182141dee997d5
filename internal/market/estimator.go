package market

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/diligence-cli/internal/metrics"
	"github.com/sells-group/diligence-cli/internal/model"
	"github.com/sells-group/diligence-cli/internal/resilience"
	"github.com/sells-group/diligence-cli/pkg/anthropic"
)

// Estimator derives external market intelligence. Each estimation tier only
// fires while the field it fills is still a placeholder:
// reasoning service → deterministic text extraction → sector benchmark.
type Estimator struct {
	client anthropic.Client
	model  string
	retry  resilience.Policy
}

// NewEstimator creates an Estimator. A nil client skips the reasoning-service
// tier entirely.
func NewEstimator(client anthropic.Client, model string, retry resilience.Policy) *Estimator {
	return &Estimator{client: client, model: model, retry: retry}
}

// Request carries the inputs for one estimation run.
type Request struct {
	CompanyName     string
	CompanyURL      string
	Sector          string
	CompanyClaimTAM string
	// ResearchText is retrieved material (web research, analyst notes) the
	// deterministic tier scans.
	ResearchText string
}

const estimatorPrompt = `You are a market analyst producing an independent market size estimate.

Company: %s
URL: %s
Sector hint: %s

Research material:
%s

Estimate the market independently of any founder claims. Use "unknown" for anything you cannot support from the material. Return a valid JSON object:
{"tam": "<e.g. $10B or unknown>", "sam": "<or unknown>", "som": "<or unknown>", "estimated_cagr": "<e.g. 12%% or unknown>", "growth_band": "<high|moderate|low|unknown>", "growth_evidence": ["<evidence line>"], "competitors": [{"name": "", "description": ""}], "competitive_threat": <0-100>, "confidence": <0-100>}`

// estimatorResponse mirrors the reasoning service's JSON shape.
type estimatorResponse struct {
	TAM               string             `json:"tam"`
	SAM               string             `json:"sam"`
	SOM               string             `json:"som"`
	EstimatedCAGR     string             `json:"estimated_cagr"`
	GrowthBand        string             `json:"growth_band"`
	GrowthEvidence    []string           `json:"growth_evidence"`
	Competitors       []model.Competitor `json:"competitors"`
	CompetitiveThreat float64            `json:"competitive_threat"`
	Confidence        float64            `json:"confidence"`
}

// Estimate runs the tiered estimation state machine. It never fails the run:
// "unknown" is a valid terminal value, always preferred over a fabricated
// one, so reasoning-service failures degrade to the deterministic tiers.
func (e *Estimator) Estimate(ctx context.Context, req Request) *model.ExternalMarketIntelligence {
	intel := &model.ExternalMarketIntelligence{
		TAM: model.TamEstimate{
			IndependentTAM: "unknown",
			CompanyClaim:   req.CompanyClaimTAM,
			Alignment:      model.TamUnknown,
		},
		Growth: model.MarketGrowthEstimate{
			EstimatedCAGR: "unknown",
			GrowthBand:    "unknown",
		},
	}

	e.estimateFromService(ctx, req, intel)
	e.estimateFromText(req, intel)
	e.estimateFromSector(req, intel)

	intel.TAM.Alignment = ClassifyAlignment(intel.TAM.CompanyClaim, intel.TAM.IndependentTAM)
	intel.TAM.DeltaSummary = deltaSummary(intel.TAM.CompanyClaim, intel.TAM.IndependentTAM, intel.TAM.Alignment)

	zap.L().Info("market: estimation complete",
		zap.String("company", req.CompanyName),
		zap.String("tam", intel.TAM.IndependentTAM),
		zap.String("tam_method", string(intel.TAM.Method)),
		zap.String("cagr", intel.Growth.EstimatedCAGR),
		zap.String("growth_method", string(intel.Growth.Method)),
		zap.String("alignment", string(intel.TAM.Alignment)),
	)
	return intel
}

// estimateFromService fills intel from a reasoning-service call. Failures are
// logged and left for the lower tiers to recover.
func (e *Estimator) estimateFromService(ctx context.Context, req Request, intel *model.ExternalMarketIntelligence) {
	if e.client == nil {
		return
	}

	prompt := fmt.Sprintf(estimatorPrompt, req.CompanyName, req.CompanyURL, req.Sector, clip(req.ResearchText, 20000))
	resp, err := resilience.Execute(ctx, e.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     e.model,
			MaxTokens: 2048,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
	})
	if err != nil {
		zap.L().Warn("market: reasoning-service estimation failed, falling back",
			zap.String("company", req.CompanyName),
			zap.Error(err),
		)
		return
	}

	var parsed estimatorResponse
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil {
		zap.L().Warn("market: unparsable estimation response", zap.Error(err))
		return
	}

	if !model.IsPlaceholder(parsed.TAM) {
		intel.TAM.IndependentTAM = parsed.TAM
		intel.TAM.IndependentSAM = zeroUnknown(parsed.SAM)
		intel.TAM.IndependentSOM = zeroUnknown(parsed.SOM)
		intel.TAM.Confidence = model.Clamp(parsed.Confidence, 0, 100)
		intel.TAM.Method = model.MethodReasoningService
	}
	if !model.IsPlaceholder(parsed.EstimatedCAGR) {
		intel.Growth.EstimatedCAGR = parsed.EstimatedCAGR
		intel.Growth.GrowthBand = normalizeBand(parsed.GrowthBand, parsed.EstimatedCAGR)
		intel.Growth.Confidence = model.Clamp(parsed.Confidence, 0, 100)
		intel.Growth.Evidence = parsed.GrowthEvidence
		intel.Growth.Method = model.MethodReasoningService
	}
	intel.Competitors = parsed.Competitors
	intel.CompetitiveThreat = model.Clamp(parsed.CompetitiveThreat, 0, 100)
}

var marketSizeRe = regexp.MustCompile(`(?i)\b(tam|total addressable market|market size|market worth|market valued)\b`)
var marketGrowthLineRe = regexp.MustCompile(`(?i)\b(market|industry|sector|cagr)\b.{0,60}\b(grow\w*|cagr|expand\w*)\b|\bcagr\b`)

// textExtractionConfidence is the fixed confidence of the deterministic tier.
const textExtractionConfidence = 55

// estimateFromText scans research text for market-size money tokens and
// growth percentages, keeping the highest magnitude of each.
func (e *Estimator) estimateFromText(req Request, intel *model.ExternalMarketIntelligence) {
	if req.ResearchText == "" {
		return
	}

	if model.IsPlaceholder(intel.TAM.IndependentTAM) {
		best := 0.0
		for _, line := range strings.Split(req.ResearchText, "\n") {
			if !marketSizeRe.MatchString(line) {
				continue
			}
			if amount, ok := metrics.MaxMoney(line); ok && amount > best {
				best = amount
			}
		}
		if best > 0 {
			intel.TAM.IndependentTAM = metrics.FormatMoney(best)
			intel.TAM.Confidence = textExtractionConfidence
			intel.TAM.Method = model.MethodTextExtraction
		}
	}

	if model.IsPlaceholder(intel.Growth.EstimatedCAGR) {
		best := 0.0
		var evidence string
		for _, line := range strings.Split(req.ResearchText, "\n") {
			if !marketGrowthLineRe.MatchString(line) {
				continue
			}
			if p, ok := metrics.MaxPercent(line); ok && p > best {
				best = p
				evidence = strings.TrimSpace(line)
			}
		}
		if best > 0 {
			intel.Growth.EstimatedCAGR = metrics.FormatPercent(best)
			intel.Growth.GrowthBand = BandForCAGR(best)
			intel.Growth.Confidence = textExtractionConfidence
			intel.Growth.Evidence = []string{evidence}
			intel.Growth.Method = model.MethodTextExtraction
		}
	}
}

// estimateFromSector applies the benchmark lookup as a last resort, always
// explicitly labeled heuristic and capped at low confidence.
func (e *Estimator) estimateFromSector(req Request, intel *model.ExternalMarketIntelligence) {
	needTAM := model.IsPlaceholder(intel.TAM.IndependentTAM)
	needGrowth := model.IsPlaceholder(intel.Growth.EstimatedCAGR)
	if !needTAM && !needGrowth {
		return
	}

	b, ok := lookupSectorBenchmark(req.Sector, req.ResearchText)
	if !ok {
		return
	}

	if needTAM {
		intel.TAM.IndependentTAM = b.tam
		intel.TAM.Confidence = sectorHeuristicMaxConfidence
		intel.TAM.Method = model.MethodSectorHeuristic
		intel.TAM.Assumptions = append(intel.TAM.Assumptions,
			"Sector benchmark estimate: "+b.assumption)
	}
	if needGrowth {
		intel.Growth.EstimatedCAGR = b.cagr
		intel.Growth.GrowthBand = b.band
		intel.Growth.Confidence = sectorHeuristicMaxConfidence
		intel.Growth.Method = model.MethodSectorHeuristic
		intel.Growth.Evidence = append(intel.Growth.Evidence,
			"Sector benchmark: "+b.assumption)
	}
}

func zeroUnknown(s string) string {
	if model.IsPlaceholder(s) {
		return ""
	}
	return s
}

// normalizeBand keeps a recognized band label, otherwise derives it from the
// CAGR figure.
func normalizeBand(band, cagr string) string {
	switch strings.ToLower(strings.TrimSpace(band)) {
	case "high", "moderate", "low":
		return strings.ToLower(strings.TrimSpace(band))
	}
	if p, ok := metrics.ParsePercent(cagr); ok {
		return BandForCAGR(p)
	}
	return "unknown"
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// cleanJSON extracts a JSON object from text that may carry markdown fences.
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
