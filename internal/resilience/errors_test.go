package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit wrap", NewRateLimitError(errors.New("slow down"), 429), true},
		{"wrapped deeper", fmt.Errorf("api call: %w", NewRateLimitError(errors.New("x"), 529)), true},
		{"message pattern", errors.New("anthropic: rate_limit_error"), true},
		{"overloaded pattern", errors.New("server overloaded, try later"), true},
		{"token limit is not rate limit", NewTokenLimitError(errors.New("x"), 413), false},
		{"plain error", errors.New("invalid schema"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestIsTokenLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit wrap", NewTokenLimitError(errors.New("x"), 413), true},
		{"prompt too long", errors.New("prompt is too long: 250000 tokens"), true},
		{"context length", errors.New("input exceeds maximum context window"), true},
		{"rate limit is not token limit", NewRateLimitError(errors.New("x"), 429), false},
		{"plain error", errors.New("bad request"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTokenLimited(tt.err))
		})
	}
}

func TestIsCapacityCoversBothKinds(t *testing.T) {
	assert.True(t, IsCapacity(NewRateLimitError(errors.New("x"), 429)))
	assert.True(t, IsCapacity(NewTokenLimitError(errors.New("x"), 413)))
	assert.False(t, IsCapacity(errors.New("schema validation failed")))
	assert.False(t, IsCapacity(nil))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   CapacityKind
		ok     bool
	}{
		{429, KindRateLimit, true},
		{529, KindRateLimit, true},
		{413, KindTokenLimit, true},
		{500, "", false},
		{200, "", false},
	}
	for _, tt := range tests {
		kind, ok := ClassifyStatus(tt.status)
		assert.Equal(t, tt.ok, ok, "status %d", tt.status)
		assert.Equal(t, tt.kind, kind, "status %d", tt.status)
	}
}

func TestCapacityErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := NewRateLimitError(inner, 429)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "rate_limit")
	assert.Contains(t, err.Error(), "root cause")
}
