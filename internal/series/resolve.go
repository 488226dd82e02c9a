// Package series answers point-in-time metric queries against a normalized
// filing series.
package series

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/fundament-io/fundament/internal/model"
)

var (
	// ErrNoFilingAvailable indicates no filing satisfies the as-of
	// constraint: nothing of the requested kind was filed on or before the
	// query date.
	ErrNoFilingAvailable = eris.New("no filing available")

	// ErrMetricNotFound indicates the resolved filing does not report the
	// requested metric. There is no fallback to an earlier period: that
	// would silently mix reporting periods.
	ErrMetricNotFound = eris.New("metric not found in filing")

	// ErrAmbiguousFiling indicates two qualifying filings share the same
	// period end and filed date, so neither can be preferred.
	ErrAmbiguousFiling = eris.New("ambiguous filing")
)

// Resolve answers "what was metric as of queryDate". The query date is an
// inclusive upper bound on the FILED date, not the period end: a filing for
// a period ending before queryDate but filed after it did not exist yet and
// must not be used. Among qualifying filings the one covering the latest
// period wins; a period end shared by two filings (e.g. an annual and a Q4
// interim) is broken by the later filed date.
func Resolve(s model.FilingSeries, metric string, queryDate time.Time, includeQuarterly bool) (float64, error) {
	var (
		winner model.FilingPeriod
		found  bool
		tied   bool
	)

	for _, p := range s {
		if p.Filed.After(queryDate) {
			continue
		}
		if p.Kind != model.Annual && !includeQuarterly {
			continue
		}

		switch {
		case !found:
			winner, found = p, true
		case p.PeriodEnd.After(winner.PeriodEnd):
			winner, tied = p, false
		case p.PeriodEnd.Equal(winner.PeriodEnd):
			switch {
			case p.Filed.After(winner.Filed):
				winner, tied = p, false
			case p.Filed.Equal(winner.Filed):
				tied = true
			}
		}
	}

	if !found {
		kind := "annual"
		if includeQuarterly {
			kind = "annual or quarterly"
		}
		return 0, eris.Wrapf(ErrNoFilingAvailable, "no %s filing on or before %s",
			kind, queryDate.Format("2006-01-02"))
	}
	if tied {
		return 0, eris.Wrapf(ErrAmbiguousFiling, "two filings for period ending %s filed %s",
			winner.PeriodEnd.Format("2006-01-02"), winner.Filed.Format("2006-01-02"))
	}

	value, ok := winner.Metrics[metric]
	if !ok {
		return 0, eris.Wrapf(ErrMetricNotFound, "%s absent from %s filing for period ending %s",
			metric, winner.Kind, winner.PeriodEnd.Format("2006-01-02"))
	}
	return value, nil
}

// ResolveLatest resolves a metric using the most recent filing, i.e. a
// query date of now.
func ResolveLatest(s model.FilingSeries, metric string, includeQuarterly bool) (float64, error) {
	return Resolve(s, metric, time.Now().UTC(), includeQuarterly)
}
