// Package metrics extracts business metrics from free text and merges them
// into a canonical per-company metric set.
package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Money-token grammar. A token qualifies when it carries a currency symbol or
// an explicit magnitude word; bare numbers only qualify through the >= 1000
// fallback when a line has no qualifying token at all.
var (
	dollarTokenRe    = regexp.MustCompile(`(?i)\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k|mm|m|bn|b|thousand|million|billion)?`)
	magnitudeTokenRe = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]+)?)\s*(thousand|million|billion|k|mm|m|bn|b)\b`)
	bareNumberRe     = regexp.MustCompile(`\b([0-9][0-9,]{2,})\b`)
)

// magnitude maps a magnitude suffix to its multiplier.
func magnitude(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k", "thousand":
		return 1_000
	case "m", "mm", "million":
		return 1_000_000
	case "b", "bn", "billion":
		return 1_000_000_000
	default:
		return 1
	}
}

func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MoneyTokens returns every qualifying money amount in s, in dollars.
// Qualifying means a $-prefixed number (any magnitude) or a number with an
// explicit magnitude word. Falls back to bare numbers >= 1000 only when the
// text contains no qualifying token.
func MoneyTokens(s string) []float64 {
	var out []float64

	seen := map[int]bool{}
	for _, m := range dollarTokenRe.FindAllStringSubmatchIndex(s, -1) {
		num := s[m[2]:m[3]]
		suffix := ""
		if m[4] >= 0 {
			suffix = s[m[4]:m[5]]
		}
		if n, ok := parseNumber(num); ok {
			out = append(out, n*magnitude(suffix))
			seen[m[2]] = true
		}
	}
	for _, m := range magnitudeTokenRe.FindAllStringSubmatchIndex(s, -1) {
		if seen[m[2]] {
			continue // already captured with a $ prefix
		}
		num := s[m[2]:m[3]]
		suffix := s[m[4]:m[5]]
		if n, ok := parseNumber(num); ok {
			out = append(out, n*magnitude(suffix))
		}
	}
	if len(out) > 0 {
		return out
	}

	// Fallback: bare numbers >= 1000 on lines with no qualifying token.
	for _, m := range bareNumberRe.FindAllStringSubmatch(s, -1) {
		if n, ok := parseNumber(m[1]); ok && n >= 1000 {
			out = append(out, n)
		}
	}
	return out
}

// ParseMoney returns the first qualifying money amount in s, in dollars.
func ParseMoney(s string) (float64, bool) {
	tokens := MoneyTokens(s)
	if len(tokens) == 0 {
		return 0, false
	}
	return tokens[0], true
}

// MaxMoney returns the largest qualifying money amount in s.
func MaxMoney(s string) (float64, bool) {
	tokens := MoneyTokens(s)
	if len(tokens) == 0 {
		return 0, false
	}
	best := tokens[0]
	for _, t := range tokens[1:] {
		if t > best {
			best = t
		}
	}
	return best, true
}

// FormatMoney renders a dollar amount in compact canonical form ("$500K",
// "$1.2M", "$50B").
func FormatMoney(amount float64) string {
	format := func(v float64, unit string) string {
		s := strconv.FormatFloat(v, 'f', 2, 64)
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
		return "$" + s + unit
	}
	switch {
	case amount >= 1_000_000_000:
		return format(amount/1_000_000_000, "B")
	case amount >= 1_000_000:
		return format(amount/1_000_000, "M")
	case amount >= 1_000:
		return format(amount/1_000, "K")
	default:
		return fmt.Sprintf("$%.0f", amount)
	}
}

var percentRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(?:%|percent\b)`)

// PercentTokens returns every percentage value in s.
func PercentTokens(s string) []float64 {
	var out []float64
	for _, m := range percentRe.FindAllStringSubmatch(s, -1) {
		if n, ok := parseNumber(m[1]); ok {
			out = append(out, n)
		}
	}
	return out
}

// ParsePercent returns the first percentage in s.
func ParsePercent(s string) (float64, bool) {
	tokens := PercentTokens(s)
	if len(tokens) == 0 {
		return 0, false
	}
	return tokens[0], true
}

// MaxPercent returns the largest percentage in s.
func MaxPercent(s string) (float64, bool) {
	tokens := PercentTokens(s)
	if len(tokens) == 0 {
		return 0, false
	}
	best := tokens[0]
	for _, t := range tokens[1:] {
		if t > best {
			best = t
		}
	}
	return best, true
}

// FormatPercent renders a percentage in canonical form ("80%", "12.5%").
func FormatPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + "%"
}
