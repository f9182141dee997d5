package model

// Document is one piece of raw diligence source material (pitch deck text,
// memo, data room export). The scoring core is ingestion-agnostic: documents
// arrive as plain text.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Note is a free-form analyst note, optionally categorized.
type Note struct {
	Category string `json:"category,omitempty"`
	Text     string `json:"text"`
}

// Founder is one verified founder record from team research.
type Founder struct {
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	PriorExits int    `json:"prior_exits,omitempty"`
	RoleMatch  bool   `json:"role_match,omitempty"` // stated role matches verified history (CEO/CTO)
	Background string `json:"background,omitempty"`
}

// TeamResearch holds verified founder history.
type TeamResearch struct {
	Founders []Founder `json:"founders"`
	Sources  []string  `json:"sources,omitempty"`
}

// OverlapType classifies how a portfolio company overlaps with the target.
type OverlapType string

const (
	OverlapSimilarSpace    OverlapType = "similar_space"
	OverlapSimilarCustomer OverlapType = "similar_customer"
	OverlapComplementary   OverlapType = "complementary"
)

// PortfolioOverlap is one portfolio company relationship.
type PortfolioOverlap struct {
	Company string      `json:"company"`
	Type    OverlapType `json:"type"`
	Note    string      `json:"note,omitempty"`
}

// PortfolioSynergyResearch holds portfolio overlap findings.
type PortfolioSynergyResearch struct {
	Overlaps []PortfolioOverlap `json:"overlaps"`
}

// NecessityClass classifies how necessary the product is to its buyer.
type NecessityClass string

const (
	NecessityPainkiller NecessityClass = "painkiller"
	NecessityVitamin    NecessityClass = "vitamin"
	NecessityVaccine    NecessityClass = "vaccine"
	NecessityUnclear    NecessityClass = "unknown"
)

// ProblemNecessityResearch holds the necessity classification and the
// concrete signals backing it.
type ProblemNecessityResearch struct {
	Classification NecessityClass `json:"classification"`
	Signals        []string       `json:"signals,omitempty"`
}

// CompanyMetadata is the light company identity block returned with a score.
type CompanyMetadata struct {
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Location string `json:"location,omitempty"`
	Sector   string `json:"sector,omitempty"`
}
