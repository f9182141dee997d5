package model

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultInsufficientEvidenceCap bounds the score of a criterion whose
// evidence status is unknown, unless the schema configures a tighter cap.
const DefaultInsufficientEvidenceCap = 60

// CriterionSpec describes one scored question within a category.
type CriterionSpec struct {
	Name                    string  `yaml:"name" json:"name"`
	Description             string  `yaml:"description" json:"description,omitempty"`
	Guidance                string  `yaml:"guidance" json:"guidance,omitempty"`
	InsufficientEvidenceCap float64 `yaml:"insufficient_evidence_cap" json:"insufficient_evidence_cap,omitempty"`
}

// Cap returns the criterion's evidence-insufficiency cap, defaulted.
func (c CriterionSpec) Cap() float64 {
	if c.InsufficientEvidenceCap > 0 {
		return c.InsufficientEvidenceCap
	}
	return DefaultInsufficientEvidenceCap
}

// CategorySpec is an ordered group of criteria with an aggregate weight.
type CategorySpec struct {
	Name     string          `yaml:"name" json:"name"`
	Weight   float64         `yaml:"weight" json:"weight"`
	Criteria []CriterionSpec `yaml:"criteria" json:"criteria"`
}

// CriteriaSchema is the analyst-defined scoring rubric. It is read-only
// configuration for a run.
type CriteriaSchema struct {
	Categories []CategorySpec `yaml:"categories" json:"categories"`
}

// LoadCriteriaSchema reads and validates a schema from a YAML file.
func LoadCriteriaSchema(path string) (*CriteriaSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "model: read criteria schema")
	}
	return ParseCriteriaSchema(data)
}

// ParseCriteriaSchema parses and validates schema YAML.
func ParseCriteriaSchema(data []byte) (*CriteriaSchema, error) {
	var s CriteriaSchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "model: parse criteria schema")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structural consistency: at least one category, every
// category has criteria, and weights sum to 100 (±0.5 tolerance).
func (s *CriteriaSchema) Validate() error {
	if len(s.Categories) == 0 {
		return eris.New("model: criteria schema has no categories")
	}
	total := 0.0
	for _, cat := range s.Categories {
		if cat.Name == "" {
			return eris.New("model: category missing name")
		}
		if len(cat.Criteria) == 0 {
			return eris.Errorf("model: category %q has no criteria", cat.Name)
		}
		for _, cr := range cat.Criteria {
			if cr.Name == "" {
				return eris.Errorf("model: category %q has unnamed criterion", cat.Name)
			}
		}
		total += cat.Weight
	}
	if total < 99.5 || total > 100.5 {
		return eris.Errorf("model: category weights sum to %.1f, want 100", total)
	}
	return nil
}

// CapFor returns the evidence-insufficiency cap for the named criterion.
func (s *CriteriaSchema) CapFor(category, criterion string) float64 {
	for _, cat := range s.Categories {
		if !strings.EqualFold(cat.Name, category) {
			continue
		}
		for _, cr := range cat.Criteria {
			if strings.EqualFold(cr.Name, criterion) {
				return cr.Cap()
			}
		}
	}
	return DefaultInsufficientEvidenceCap
}

// CategoryNames returns category names in schema order.
func (s *CriteriaSchema) CategoryNames() []string {
	names := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		names[i] = c.Name
	}
	return names
}
