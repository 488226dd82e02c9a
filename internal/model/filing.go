// Package model defines the core domain types shared across the engine.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// PeriodKind classifies the reporting period covered by a filing.
type PeriodKind string

const (
	Annual    PeriodKind = "annual"
	Quarterly PeriodKind = "quarterly"
)

// ParsePeriodKind converts an EDGAR fiscal period code (FY, Q1..Q4) into a
// PeriodKind. Returns false for codes that cannot be classified.
func ParsePeriodKind(fp string) (PeriodKind, bool) {
	switch fp {
	case "FY":
		return Annual, true
	case "Q1", "Q2", "Q3", "Q4":
		return Quarterly, true
	default:
		return "", false
	}
}

// FilingPeriod is one normalized reporting period for one company.
// Metrics are keyed by canonical metric names. Identity is
// (Ticker, PeriodEnd, Kind); values are immutable once normalized.
type FilingPeriod struct {
	Ticker    string             `json:"ticker"`
	PeriodEnd time.Time          `json:"period_end"`
	Filed     time.Time          `json:"filed"`
	Kind      PeriodKind         `json:"kind"`
	Metrics   map[string]float64 `json:"metrics"`
}

// FilingSeries is the ordered, deduplicated filing history for one company,
// sorted by Filed ascending (ties broken by PeriodEnd, then Kind).
type FilingSeries []FilingPeriod

// Validate checks the series invariants: no duplicate (PeriodEnd, Kind)
// identity, and no filing filed before its period ended.
func (s FilingSeries) Validate() error {
	type key struct {
		end  time.Time
		kind PeriodKind
	}
	seen := make(map[key]bool, len(s))
	for _, p := range s {
		if p.Filed.Before(p.PeriodEnd) {
			return eris.Errorf("filing for %s period ending %s filed %s, before period end",
				p.Ticker, p.PeriodEnd.Format("2006-01-02"), p.Filed.Format("2006-01-02"))
		}
		k := key{p.PeriodEnd, p.Kind}
		if seen[k] {
			return eris.Errorf("duplicate %s period ending %s for %s",
				p.Kind, p.PeriodEnd.Format("2006-01-02"), p.Ticker)
		}
		seen[k] = true
	}
	return nil
}

// IndexSnapshot records index membership as of a date. Tickers are sorted.
type IndexSnapshot struct {
	AsOf    time.Time `json:"as_of"`
	Tickers []string  `json:"tickers"`
}

// CacheMetadata tracks when a locally cached dataset was last downloaded and
// the upstream ETag it carried. Created on first download, updated on every
// successful refresh; an empty ETag means the upstream did not send one.
type CacheMetadata struct {
	DatasetID        string    `json:"dataset_id"`
	LastDownloadedAt time.Time `json:"last_downloaded_at"`
	ETag             string    `json:"etag,omitempty"`
}
