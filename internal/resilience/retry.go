package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy is an explicit retry policy: a pure decision object wrapping a
// client call. Retryable defaults to IsCapacity; non-capacity failures
// propagate on the first attempt.
type Policy struct {
	// MaxAttempts counts the first try. 1 means no retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// Multiplier scales the delay after each failed attempt. Default: 2.0.
	Multiplier float64

	// MaxBackoff caps the computed delay. Default: 30s.
	MaxBackoff time.Duration

	// JitterFraction randomizes each sleep by up to ±fraction of the
	// computed delay, so concurrent callers don't retry in lockstep.
	// Zero means no jitter.
	JitterFraction float64

	// Retryable decides which errors are retried. Default: IsCapacity.
	Retryable func(error) bool

	// OnRetry runs before each backoff sleep.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy is the retry policy for reasoning-service calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		Multiplier:     2.0,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.2,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	if p.Retryable == nil {
		p.Retryable = IsCapacity
	}
	return p
}

// Delay returns the backoff before retry number attempt (0-based), without
// jitter. The jitter lands on the actual sleep, not the schedule, so Delay
// stays deterministic.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	d := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}

// jittered spreads d by up to ±JitterFraction.
func (p Policy) jittered(d time.Duration) time.Duration {
	if p.JitterFraction <= 0 {
		return d
	}
	spread := 1 + p.JitterFraction*(2*rand.Float64()-1)
	return time.Duration(float64(d) * spread)
}

// Execute runs fn under the policy, preserving the successful value.
// Context cancellation stops retries immediately.
func Execute[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !p.Retryable(err) {
			return zero, lastErr
		}
		if attempt >= p.MaxAttempts-1 {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.jittered(p.Delay(attempt)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// RetryLogger returns an OnRetry callback with structured logging.
func RetryLogger(operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying reasoning-service call",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
