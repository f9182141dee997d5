package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "churn rate is unknown", "churn rate is unknown", 1.0},
		{"disjoint", "churn rate unknown", "founder has two exits", 0},
		{"empty", "", "churn rate unknown", 0},
		{"punctuation ignored", "What is the churn rate?", "what is the churn rate", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, jaccard(tt.a, tt.b), 0.001)
		})
	}
}

func TestDedupeKeepsFirstPhrasing(t *testing.T) {
	in := []string{
		"Churn rate is not documented for any customer cohort",
		"The churn rate is not documented for customer cohorts", // paraphrase
		"Founder has no verifiable prior exits",
		"  ",
	}
	out := dedupe(in)

	require.Len(t, out, 2)
	assert.Equal(t, "Churn rate is not documented for any customer cohort", out[0])
	assert.Equal(t, "Founder has no verifiable prior exits", out[1])
}

func TestDedupeKeepsDistinctConcerns(t *testing.T) {
	in := []string{
		"TAM claim of $50B is 6x the independent estimate",
		"No documented raise amount appears in the provided material",
	}
	assert.Equal(t, in, dedupe(in))
}

func TestSpecificity(t *testing.T) {
	vague := specificity("We would like more information about the company.")
	short := specificity("Churn?")
	concrete := specificity("ARR grew from $1.0M to $1.8M (80%) but churn is undocumented.")

	assert.Greater(t, concrete, vague)
	assert.Greater(t, vague, short)
	// Figures, currency, and percent each add on top of the base.
	assert.InDelta(t, 20, concrete, 0.01)
}

func TestTokenSetDropsShortTokens(t *testing.T) {
	set := tokenSet("A $5M raise at a 20% discount")
	assert.False(t, set["a"])
	assert.True(t, set["$5m"])
	assert.True(t, set["raise"])
}
