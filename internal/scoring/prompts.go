package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/diligence-cli/internal/model"
)

const scoringSystem = `You are an investment analyst scoring a company under due diligence. Score strictly from the provided material. Cite evidence for every score. When the material does not support a judgment, say so: use evidence_status "unknown" and keep the score conservative. Never invent facts, figures, or funding amounts.`

const scoreOutputShape = `Return a single valid JSON object, no markdown fences, with this shape:
{
  "categories": [
    {
      "name": "<category name exactly as given>",
      "score": <0-100>,
      "criteria": [
        {
          "name": "<criterion name exactly as given>",
          "score": <0-100>,
          "confidence": <0-100>,
          "evidence_status": "<supported|weakly_supported|unknown|contradicted>",
          "reasoning": "<2-4 sentences>",
          "evidence": ["<direct quote or close paraphrase from the material>"],
          "missing_data": ["<what would raise confidence>"],
          "follow_up_questions": ["<question for the founders>"],
          "answer": "<direct answer to the criterion question>"
        }
      ]
    }
  ],
  "thesis": {"summary": "<3-5 sentence investment thesis>", "strengths": ["..."], "concerns": ["..."]},
  "data_quality": <0-100, how complete the provided material is>,
  "follow_up_questions": ["<top questions across all categories>"]
}`

// buildPrimaryPrompt renders the full-schema scoring request.
func buildPrimaryPrompt(schema *model.CriteriaSchema, context string) string {
	var b strings.Builder

	b.WriteString("Score this company against every category and criterion below.\n\n")
	b.WriteString("=== Scoring Rubric ===\n")
	b.WriteString(renderSchema(schema.Categories))
	b.WriteString("\n=== Company Material ===\n")
	b.WriteString(context)
	b.WriteString("\n\n=== Output ===\n")
	b.WriteString(scoreOutputShape)

	return b.String()
}

// buildCategoryPrompt renders a single-category request for chunked mode. The
// output shape is the categories array of the full response, restricted to one
// element, so chunked results reassemble into the same payload.
func buildCategoryPrompt(cat model.CategorySpec, context string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Score this company against the single category %q below. Ignore all other aspects of the business.\n\n", cat.Name)
	b.WriteString("=== Scoring Rubric ===\n")
	b.WriteString(renderSchema([]model.CategorySpec{cat}))
	b.WriteString("\n=== Company Material ===\n")
	b.WriteString(context)
	b.WriteString("\n\n=== Output ===\n")
	b.WriteString(`Return a single valid JSON object, no markdown fences:
{
  "name": "<category name exactly as given>",
  "score": <0-100>,
  "criteria": [
    {
      "name": "<criterion name exactly as given>",
      "score": <0-100>,
      "confidence": <0-100>,
      "evidence_status": "<supported|weakly_supported|unknown|contradicted>",
      "reasoning": "<2-4 sentences>",
      "evidence": ["<direct quote or close paraphrase>"],
      "missing_data": ["..."],
      "follow_up_questions": ["..."],
      "answer": "<direct answer>"
    }
  ]
}`)

	return b.String()
}

// buildSynthesisPrompt asks for the cross-category thesis once all chunked
// category results are in. It sees the scored categories, not the raw corpus.
func buildSynthesisPrompt(companyName string, cats []RawCategory) string {
	scored, _ := json.MarshalIndent(cats, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Below are per-category diligence scores for %s. Synthesize them into an overall investment thesis.\n\n", companyName)
	b.WriteString("=== Category Results ===\n")
	b.Write(scored)
	b.WriteString("\n\n=== Output ===\n")
	b.WriteString(`Return a single valid JSON object, no markdown fences:
{
  "thesis": {"summary": "<3-5 sentence investment thesis>", "strengths": ["..."], "concerns": ["..."]},
  "data_quality": <0-100, judged from evidence statuses and missing_data across categories>,
  "follow_up_questions": ["<top questions across all categories>"]
}`)

	return b.String()
}

func renderSchema(cats []model.CategorySpec) string {
	var b strings.Builder
	for _, cat := range cats {
		fmt.Fprintf(&b, "Category: %s (weight %.0f%%)\n", cat.Name, cat.Weight)
		for _, cr := range cat.Criteria {
			fmt.Fprintf(&b, "  - %s", cr.Name)
			if cr.Description != "" {
				fmt.Fprintf(&b, ": %s", cr.Description)
			}
			b.WriteString("\n")
			if cr.Guidance != "" {
				fmt.Fprintf(&b, "    Guidance: %s\n", cr.Guidance)
			}
		}
	}
	return b.String()
}
