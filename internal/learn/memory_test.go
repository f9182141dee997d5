package learn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOverrideCalibrations(t *testing.T) {
	ctx := context.Background()
	p := NewMemory()

	overrides := []Override{
		{Company: "Acme", Category: "Team", Criterion: "Founder Experience", Delta: 10},
		{Company: "Acme", Category: "team", Criterion: "Role Coverage", Delta: 6},
		{Company: "Globex", Category: "Market", Criterion: "TAM Credibility", Delta: -4},
	}
	for _, o := range overrides {
		require.NoError(t, p.RecordOverride(ctx, o))
	}

	cals, err := p.OverrideCalibrations(ctx)
	require.NoError(t, err)
	require.Len(t, cals, 2, "category aggregation is case-insensitive")

	assert.Equal(t, "Team", cals[0].Category, "first-seen casing preserved")
	assert.InDelta(t, 8, cals[0].AvgDelta, 0.01)
	assert.Equal(t, 2, cals[0].SampleCount)
	assert.Equal(t, "Market", cals[1].Category)
	assert.InDelta(t, -4, cals[1].AvgDelta, 0.01)
}

func TestMemoryOverrideCalibrationsEmpty(t *testing.T) {
	cals, err := NewMemory().OverrideCalibrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cals)
}

func TestMemoryStats(t *testing.T) {
	ctx := context.Background()
	p := NewMemory()

	decisions := []Decision{
		{Company: "Acme", Invested: true, Score: 80},
		{Company: "Globex", Invested: true, Score: 70},
		{Company: "Initech", Invested: false, Score: 45},
	}
	for _, d := range decisions {
		require.NoError(t, p.RecordDecision(ctx, d))
	}

	stats, err := p.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Invested)
	assert.Equal(t, 1, stats.Passed)
	assert.InDelta(t, 75, stats.InvestedAvgScore, 0.01)
	assert.InDelta(t, 45, stats.PassedAvgScore, 0.01)
}

func TestMemoryStatsEmpty(t *testing.T) {
	stats, err := NewMemory().Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Invested)
	assert.Zero(t, stats.InvestedAvgScore)
}

func TestMemoryAssignsIDsAndTimestamps(t *testing.T) {
	ctx := context.Background()
	p := NewMemory()

	require.NoError(t, p.RecordDecision(ctx, Decision{Company: "Acme", Invested: true, Score: 80}))
	require.NoError(t, p.RecordOverride(ctx, Override{Company: "Acme", Category: "Team", Delta: 5}))

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.NotEmpty(t, p.decisions[0].ID)
	assert.False(t, p.decisions[0].DecidedAt.IsZero())
	assert.NotEmpty(t, p.overrides[0].ID)
	assert.False(t, p.overrides[0].CreatedAt.IsZero())
}
