// Package normalize converts raw EDGAR company facts into ordered,
// deduplicated per-company filing series.
package normalize

import (
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fundament-io/fundament/internal/facts"
	"github.com/fundament-io/fundament/internal/model"
)

var (
	// ErrMalformedFiling indicates a raw archive missing required structural
	// fields: period end, filed date, or any recognized metric tag.
	ErrMalformedFiling = eris.New("malformed filing archive")

	// ErrUnsupportedPeriod indicates a reporting period that cannot be
	// classified as annual or quarterly.
	ErrUnsupportedPeriod = eris.New("unsupported reporting period")
)

const dateLayout = "2006-01-02"

type periodKey struct {
	end  time.Time
	kind model.PeriodKind
}

type metricCell struct {
	value float64
	filed time.Time
	rank  int
}

// Normalize converts one company's raw facts into a FilingSeries. It is
// idempotent: the same archive always produces an identical series,
// regardless of the order facts appear in the raw JSON.
//
// Restatements (same period, same metric, later filed date) override the
// earlier value. Unrecognized tags were already dropped during extraction.
func Normalize(ticker string, cf *facts.CompanyFacts) (model.FilingSeries, error) {
	raw := facts.ExtractRecognized(cf)
	if len(raw) == 0 {
		return nil, eris.Wrapf(ErrMalformedFiling, "%s: no recognized metric tags", ticker)
	}

	periods := make(map[periodKey]map[string]metricCell)
	filedMax := make(map[periodKey]time.Time)

	for _, rm := range raw {
		end, err := time.Parse(dateLayout, rm.PeriodEnd)
		if err != nil {
			return nil, eris.Wrapf(ErrMalformedFiling, "%s: bad period end %q for %s", ticker, rm.PeriodEnd, rm.Tag)
		}
		filed, err := time.Parse(dateLayout, rm.Filed)
		if err != nil {
			return nil, eris.Wrapf(ErrMalformedFiling, "%s: bad filed date %q for %s", ticker, rm.Filed, rm.Tag)
		}
		if filed.Before(end) {
			return nil, eris.Wrapf(ErrMalformedFiling, "%s: %s filed %s before period end %s",
				ticker, rm.Tag, rm.Filed, rm.PeriodEnd)
		}
		kind, ok := model.ParsePeriodKind(rm.FP)
		if !ok {
			return nil, eris.Wrapf(ErrUnsupportedPeriod, "%s: fiscal period %q for %s ending %s",
				ticker, rm.FP, rm.Tag, rm.PeriodEnd)
		}

		key := periodKey{end: end, kind: kind}
		cells, ok := periods[key]
		if !ok {
			cells = make(map[string]metricCell)
			periods[key] = cells
		}
		if filed.After(filedMax[key]) {
			filedMax[key] = filed
		}

		cell, exists := cells[rm.Metric]
		if !exists || supersedes(filed, rm, cell) {
			cells[rm.Metric] = metricCell{value: rm.Value, filed: filed, rank: rm.TagRank}
		}
	}

	series := make(model.FilingSeries, 0, len(periods))
	for key, cells := range periods {
		metrics := make(map[string]float64, len(cells))
		for name, cell := range cells {
			metrics[name] = cell.value
		}
		series = append(series, model.FilingPeriod{
			Ticker:    ticker,
			PeriodEnd: key.end,
			Filed:     filedMax[key],
			Kind:      key.kind,
			Metrics:   metrics,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		a, b := series[i], series[j]
		if !a.Filed.Equal(b.Filed) {
			return a.Filed.Before(b.Filed)
		}
		if !a.PeriodEnd.Equal(b.PeriodEnd) {
			return a.PeriodEnd.Before(b.PeriodEnd)
		}
		return a.Kind < b.Kind
	})

	if err := series.Validate(); err != nil {
		return nil, eris.Wrapf(ErrMalformedFiling, "%s: %s", ticker, err.Error())
	}
	return series, nil
}

// supersedes reports whether the incoming fact should replace the stored
// cell for the same (period, metric). Later filed dates win (restatement
// rule); on equal filed dates the higher-precedence tag wins, then the
// larger value, so the merge is independent of input order.
func supersedes(filed time.Time, rm facts.RawMetric, cell metricCell) bool {
	if !filed.Equal(cell.filed) {
		return filed.After(cell.filed)
	}
	if rm.TagRank != cell.rank {
		return rm.TagRank < cell.rank
	}
	return rm.Value > cell.value
}
