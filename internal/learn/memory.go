package learn

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProvider implements Provider in process memory. It is the default
// backend when no database is configured, and the test double everywhere.
type MemoryProvider struct {
	mu        sync.Mutex
	decisions []Decision
	overrides []Override
}

// NewMemory creates an empty MemoryProvider.
func NewMemory() *MemoryProvider {
	return &MemoryProvider{}
}

func (p *MemoryProvider) Migrate(context.Context) error { return nil }
func (p *MemoryProvider) Close() error                  { return nil }

func (p *MemoryProvider) RecordDecision(_ context.Context, d Decision) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now().UTC()
	}
	p.decisions = append(p.decisions, d)
	return nil
}

func (p *MemoryProvider) RecordOverride(_ context.Context, o Override) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	p.overrides = append(p.overrides, o)
	return nil
}

func (p *MemoryProvider) OverrideCalibrations(context.Context) ([]OverrideCalibration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sums := map[string]float64{}
	counts := map[string]int{}
	var order []string
	for _, o := range p.overrides {
		key := strings.ToLower(o.Category)
		if _, seen := counts[key]; !seen {
			order = append(order, o.Category)
		}
		sums[key] += o.Delta
		counts[key]++
	}

	out := make([]OverrideCalibration, 0, len(order))
	for _, cat := range order {
		key := strings.ToLower(cat)
		out = append(out, OverrideCalibration{
			Category:    cat,
			AvgDelta:    sums[key] / float64(counts[key]),
			SampleCount: counts[key],
		})
	}
	return out, nil
}

func (p *MemoryProvider) Stats(context.Context) (*InvestmentStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var s InvestmentStats
	investedSum, passedSum := 0.0, 0.0
	for _, d := range p.decisions {
		if d.Invested {
			s.Invested++
			investedSum += d.Score
		} else {
			s.Passed++
			passedSum += d.Score
		}
	}
	if s.Invested > 0 {
		s.InvestedAvgScore = investedSum / float64(s.Invested)
	}
	if s.Passed > 0 {
		s.PassedAvgScore = passedSum / float64(s.Passed)
	}
	return &s, nil
}
