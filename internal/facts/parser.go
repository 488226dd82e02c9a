// Package facts parses EDGAR company facts JSON and maps raw XBRL line-item
// tags onto canonical metric names.
package facts

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// CompanyFacts represents the EDGAR company facts JSON structure.
type CompanyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]FactNS `json:"facts"`
}

// FactNS groups facts by namespace (e.g., "us-gaap", "dei").
type FactNS map[string]Fact

// Fact is a single XBRL line item with its units and reported values.
type Fact struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactValue `json:"units"`
}

// FactValue is a single data point for a fact.
type FactValue struct {
	Start string      `json:"start,omitempty"`
	End   string      `json:"end"`
	Val   json.Number `json:"val"`
	Accn  string      `json:"accn"`
	FY    int         `json:"fy"`
	FP    string      `json:"fp"`
	Form  string      `json:"form"`
	Filed string      `json:"filed"`
	Frame string      `json:"frame,omitempty"`
}

// RawMetric is a recognized fact value flattened for normalization.
type RawMetric struct {
	Metric    string // canonical metric name
	Tag       string // original XBRL tag
	TagRank   int    // position of Tag in the metric's chain (lower wins)
	PeriodEnd string
	Filed     string
	FP        string
	Value     float64
}

// ParseCompanyFacts parses EDGAR company facts JSON from a reader.
func ParseCompanyFacts(r io.Reader) (*CompanyFacts, error) {
	var facts CompanyFacts
	if err := json.NewDecoder(r).Decode(&facts); err != nil {
		return nil, eris.Wrap(err, "facts: parse company facts")
	}
	return &facts, nil
}

// ExtractRecognized walks the us-gaap and dei namespaces and returns every
// value whose (tag, unit) pair is in the taxonomy. Unrecognized tags are
// dropped: regulatory taxonomies grow new tags over time and an unknown tag
// is not an error. Non-numeric values are skipped.
func ExtractRecognized(facts *CompanyFacts) []RawMetric {
	if facts == nil || len(facts.Facts) == 0 {
		return nil
	}

	var out []RawMetric
	for _, ns := range []string{"us-gaap", "dei"} {
		nsMap, ok := facts.Facts[ns]
		if !ok {
			continue
		}
		for tag, fact := range nsMap {
			mapping, ok := tagIndex[tag]
			if !ok {
				continue
			}
			values, ok := fact.Units[mapping.unit]
			if !ok {
				continue
			}
			for _, v := range values {
				if v.End == "" || v.Filed == "" {
					continue
				}
				f, err := v.Val.Float64()
				if err != nil {
					continue
				}
				out = append(out, RawMetric{
					Metric:    mapping.metric,
					Tag:       tag,
					TagRank:   mapping.rank,
					PeriodEnd: v.End,
					Filed:     v.Filed,
					FP:        v.FP,
					Value:     f,
				})
			}
		}
	}
	return out
}
