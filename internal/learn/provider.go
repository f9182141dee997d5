// Package learn stores historical investment decisions and analyst score
// overrides, and aggregates them into the calibration inputs the scoring
// pipeline consumes.
package learn

import (
	"context"
	"time"
)

// Decision is one recorded invest/pass outcome.
type Decision struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Invested  bool      `json:"invested"`
	Score     float64   `json:"score"`
	DecidedAt time.Time `json:"decided_at"`
}

// Override is one recorded analyst score override. Delta is override minus
// model score, in points.
type Override struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Category  string    `json:"category"`
	Criterion string    `json:"criterion"`
	Delta     float64   `json:"delta"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OverrideCalibration is the per-category aggregate the calibration pipeline
// reads.
type OverrideCalibration struct {
	Category    string  `json:"category"`
	AvgDelta    float64 `json:"avg_delta"`
	SampleCount int     `json:"sample_count"`
}

// InvestmentStats summarizes historical outcomes.
type InvestmentStats struct {
	Invested         int     `json:"invested"`
	Passed           int     `json:"passed"`
	InvestedAvgScore float64 `json:"invested_avg_score"`
	PassedAvgScore   float64 `json:"passed_avg_score"`
}

// Provider is the learning-data store. Implementations: postgres, sqlite,
// in-memory.
type Provider interface {
	RecordDecision(ctx context.Context, d Decision) error
	RecordOverride(ctx context.Context, o Override) error

	// OverrideCalibrations returns per-category override aggregates.
	OverrideCalibrations(ctx context.Context) ([]OverrideCalibration, error)
	// Stats returns aggregate invested/passed statistics.
	Stats(ctx context.Context) (*InvestmentStats, error)

	Migrate(ctx context.Context) error
	Close() error
}
