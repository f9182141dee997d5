package resilience

import (
	"errors"
	"strings"
)

// CapacityKind distinguishes the two provider-capacity failure classes that
// trigger retry and graceful degradation. Everything else propagates.
type CapacityKind string

const (
	KindRateLimit  CapacityKind = "rate_limit"
	KindTokenLimit CapacityKind = "token_limit"
)

// CapacityError wraps a provider error classified as a transient capacity
// failure (rate limit or token/context limit).
type CapacityError struct {
	Kind       CapacityKind
	StatusCode int
	Err        error
}

func (e *CapacityError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *CapacityError) Unwrap() error {
	return e.Err
}

// NewRateLimitError wraps err as a rate-limit capacity failure.
func NewRateLimitError(err error, statusCode int) *CapacityError {
	return &CapacityError{Kind: KindRateLimit, StatusCode: statusCode, Err: err}
}

// NewTokenLimitError wraps err as a token-limit capacity failure.
func NewTokenLimitError(err error, statusCode int) *CapacityError {
	return &CapacityError{Kind: KindTokenLimit, StatusCode: statusCode, Err: err}
}

// rateLimitPatterns match provider messages for request-rate exhaustion.
var rateLimitPatterns = []string{
	"rate limit",
	"rate_limit_error",
	"too many requests",
	"overloaded",
	"overloaded_error",
	"429",
}

// tokenLimitPatterns match provider messages for context/token exhaustion.
var tokenLimitPatterns = []string{
	"prompt is too long",
	"context length",
	"context_length",
	"maximum context",
	"max_tokens",
	"too many tokens",
	"request_too_large",
	"input length exceeds",
}

// IsRateLimited reports whether err is classified as a rate-limit failure,
// by explicit wrap, status code, or message substring.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce.Kind == KindRateLimit
	}
	return matchesAny(err, rateLimitPatterns)
}

// IsTokenLimited reports whether err is classified as a token/context-limit
// failure.
func IsTokenLimited(err error) bool {
	if err == nil {
		return false
	}
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce.Kind == KindTokenLimit
	}
	return matchesAny(err, tokenLimitPatterns)
}

// IsCapacity reports whether err is either capacity failure class. These are
// the only errors that are retried and, when retries exhaust, trigger the
// chunked scoring fallback.
func IsCapacity(err error) bool {
	return IsRateLimited(err) || IsTokenLimited(err)
}

// ClassifyStatus maps an HTTP status code to a capacity kind, if any.
func ClassifyStatus(statusCode int) (CapacityKind, bool) {
	switch statusCode {
	case 429, 529:
		return KindRateLimit, true
	case 413:
		return KindTokenLimit, true
	default:
		return "", false
	}
}

func matchesAny(err error, patterns []string) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
