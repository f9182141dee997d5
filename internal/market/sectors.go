package market

import "strings"

// sectorHeuristicMaxConfidence caps the confidence of any benchmark-derived
// estimate. Benchmarks are a last resort and must read as such.
const sectorHeuristicMaxConfidence = 40

// sectorBenchmark is a conservative industry-level TAM/growth band. The
// values are tuned estimates, kept as configuration constants rather than
// re-derived.
type sectorBenchmark struct {
	keywords   []string
	tam        string
	cagr       string
	band       string
	assumption string
}

var sectorBenchmarks = []sectorBenchmark{
	{
		keywords:   []string{"fintech", "payments", "banking", "lending"},
		tam:        "$300B",
		cagr:       "15%",
		band:       "high",
		assumption: "Global fintech software benchmark; assumes broad financial-services applicability",
	},
	{
		keywords:   []string{"healthcare", "health tech", "medtech", "clinical", "patient"},
		tam:        "$250B",
		cagr:       "12%",
		band:       "moderate",
		assumption: "Healthcare IT benchmark; regulatory friction discounts adoption",
	},
	{
		keywords:   []string{"cybersecurity", "security", "threat detection", "zero trust"},
		tam:        "$200B",
		cagr:       "12%",
		band:       "high",
		assumption: "Enterprise security spend benchmark",
	},
	{
		keywords:   []string{"developer tools", "devtools", "devops", "api platform", "observability"},
		tam:        "$50B",
		cagr:       "17%",
		band:       "high",
		assumption: "Developer tooling benchmark; assumes bottoms-up adoption",
	},
	{
		keywords:   []string{"logistics", "supply chain", "freight", "shipping"},
		tam:        "$150B",
		cagr:       "8%",
		band:       "moderate",
		assumption: "Logistics software benchmark; excludes physical freight spend",
	},
	{
		keywords:   []string{"artificial intelligence", "machine learning", "llm", "generative ai", " ai "},
		tam:        "$400B",
		cagr:       "25%",
		band:       "high",
		assumption: "Broad AI software benchmark; category boundaries are unstable",
	},
	{
		keywords:   []string{"education", "edtech", "learning platform"},
		tam:        "$100B",
		cagr:       "10%",
		band:       "moderate",
		assumption: "Education technology benchmark; assumes institutional buyers",
	},
	{
		keywords:   []string{"ecommerce", "e-commerce", "retail", "marketplace"},
		tam:        "$350B",
		cagr:       "9%",
		band:       "moderate",
		assumption: "Commerce software benchmark; excludes gross merchandise volume",
	},
	{
		keywords:   []string{"real estate", "proptech", "property management"},
		tam:        "$80B",
		cagr:       "7%",
		band:       "moderate",
		assumption: "Property technology benchmark",
	},
	{
		keywords:   []string{"hr ", "human resources", "recruiting", "talent"},
		tam:        "$60B",
		cagr:       "8%",
		band:       "moderate",
		assumption: "HR technology benchmark",
	},
}

// lookupSectorBenchmark scans the sector hint and corpus text for industry
// keywords and returns the first matching benchmark.
func lookupSectorBenchmark(sector, corpus string) (sectorBenchmark, bool) {
	haystack := strings.ToLower(sector + " " + corpus)
	for _, b := range sectorBenchmarks {
		for _, kw := range b.keywords {
			if strings.Contains(haystack, kw) {
				return b, true
			}
		}
	}
	return sectorBenchmark{}, false
}

// BandForCAGR maps a growth percentage to a growth band label.
func BandForCAGR(cagr float64) string {
	switch {
	case cagr >= 15:
		return "high"
	case cagr >= 7:
		return "moderate"
	case cagr > 0:
		return "low"
	default:
		return "unknown"
	}
}
