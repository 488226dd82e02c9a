// Package refdata loads and serves externally curated reference data:
// per-year industry cost-of-capital tables, the ticker→industry mapping,
// and dated index-membership snapshots. Everything is loaded once and
// treated as immutable for the process lifetime.
package refdata

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundament-io/fundament/internal/model"
)

var (
	// ErrUnknownTicker indicates the ticker has no industry mapping.
	ErrUnknownTicker = eris.New("unknown ticker")

	// ErrNoTableForYear indicates no cost-of-capital table exists for the
	// query year. Tables are never extrapolated across years.
	ErrNoTableForYear = eris.New("no cost of capital table for year")

	// ErrNoSnapshotAvailable indicates the earliest known index snapshot
	// postdates the query date.
	ErrNoSnapshotAvailable = eris.New("no index snapshot available")
)

// Store indexes the loaded reference data. Shared read-only across queries.
type Store struct {
	wacc       map[int]map[string]float64 // year -> label -> fraction
	industries map[string]string          // ticker -> industry label
	snapshots  []model.IndexSnapshot      // sorted by AsOf ascending
	matcher    *Matcher
}

type waccRow struct {
	Industry      string  `csv:"industry"`
	CostOfCapital float64 `csv:"cost_of_capital"`
}

type industryRow struct {
	Ticker   string `csv:"ticker"`
	Industry string `csv:"industry"`
}

type snapshotRow struct {
	Date    string `csv:"date"`
	Tickers string `csv:"tickers"`
}

// Load reads reference data from dir. Expected layout:
//
//	dir/industries.csv       ticker,industry
//	dir/wacc/<year>.csv      industry,cost_of_capital (decimal fractions)
//	dir/index/*.csv          date,tickers (comma-joined, one snapshot per row)
func Load(dir string, matcher *Matcher) (*Store, error) {
	if matcher == nil {
		matcher = NewMatcher(DefaultThreshold, DefaultMargin)
	}
	s := &Store{
		wacc:       make(map[int]map[string]float64),
		industries: make(map[string]string),
		matcher:    matcher,
	}

	if err := s.loadIndustries(filepath.Join(dir, "industries.csv")); err != nil {
		return nil, err
	}
	if err := s.loadWACCTables(filepath.Join(dir, "wacc")); err != nil {
		return nil, err
	}
	if err := s.loadSnapshots(filepath.Join(dir, "index")); err != nil {
		return nil, err
	}

	zap.L().Info("reference data loaded",
		zap.Int("industries", len(s.industries)),
		zap.Int("wacc_years", len(s.wacc)),
		zap.Int("index_snapshots", len(s.snapshots)),
	)
	return s, nil
}

func (s *Store) loadIndustries(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "refdata: read industry mapping")
	}
	var rows []industryRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return eris.Wrap(err, "refdata: parse industry mapping")
	}
	for _, r := range rows {
		if r.Ticker == "" || r.Industry == "" {
			continue
		}
		s.industries[strings.ToUpper(r.Ticker)] = r.Industry
	}
	return nil
}

func (s *Store) loadWACCTables(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrap(err, "refdata: read wacc dir")
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSuffix(name, ".csv"))
		if err != nil {
			return eris.Errorf("refdata: wacc file %q is not named <year>.csv", name)
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return eris.Wrapf(err, "refdata: read wacc table %d", year)
		}
		var rows []waccRow
		if err := csvutil.Unmarshal(data, &rows); err != nil {
			return eris.Wrapf(err, "refdata: parse wacc table %d", year)
		}
		table := make(map[string]float64, len(rows))
		for _, r := range rows {
			if r.Industry == "" {
				continue
			}
			table[r.Industry] = r.CostOfCapital
		}
		s.wacc[year] = table
	}
	return nil
}

func (s *Store) loadSnapshots(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrap(err, "refdata: read index dir")
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return eris.Wrapf(err, "refdata: read index file %s", name)
		}
		var rows []snapshotRow
		if err := csvutil.Unmarshal(data, &rows); err != nil {
			return eris.Wrapf(err, "refdata: parse index file %s", name)
		}
		for _, r := range rows {
			asOf, err := time.Parse("2006-01-02", r.Date)
			if err != nil {
				return eris.Wrapf(err, "refdata: bad snapshot date %q in %s", r.Date, name)
			}
			tickers := splitTickers(r.Tickers)
			if len(tickers) == 0 {
				continue
			}
			s.snapshots = append(s.snapshots, model.IndexSnapshot{AsOf: asOf, Tickers: tickers})
		}
	}

	sort.Slice(s.snapshots, func(i, j int) bool {
		return s.snapshots[i].AsOf.Before(s.snapshots[j].AsOf)
	})
	return nil
}

func splitTickers(joined string) []string {
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Industry returns the industry label for a ticker.
func (s *Store) Industry(ticker string) (string, error) {
	label, ok := s.industries[strings.ToUpper(ticker)]
	if !ok {
		return "", eris.Wrapf(ErrUnknownTicker, "%s has no industry mapping", ticker)
	}
	return label, nil
}

// CostOfCapital resolves the industry cost of capital for a ticker as of the
// calendar year of queryDate. On an exact-key miss the label is matched
// fuzzily against the year's table within the bounded policy; an ambiguous
// or low-confidence match is a hard failure, never a guess.
func (s *Store) CostOfCapital(ticker string, queryDate time.Time) (float64, error) {
	label, err := s.Industry(ticker)
	if err != nil {
		return 0, err
	}

	year := queryDate.Year()
	table, ok := s.wacc[year]
	if !ok {
		return 0, eris.Wrapf(ErrNoTableForYear, "%d", year)
	}

	if v, ok := table[label]; ok {
		return v, nil
	}

	key, err := s.matcher.BestMatch(label, table)
	if err != nil {
		return 0, err
	}
	return table[key], nil
}

// MembersAsOf returns the index membership from the latest snapshot taken on
// or before queryDate.
func (s *Store) MembersAsOf(queryDate time.Time) ([]string, error) {
	// Snapshots are sorted ascending; find the last one not after queryDate.
	i := sort.Search(len(s.snapshots), func(i int) bool {
		return s.snapshots[i].AsOf.After(queryDate)
	})
	if i == 0 {
		return nil, eris.Wrapf(ErrNoSnapshotAvailable, "no snapshot on or before %s",
			queryDate.Format("2006-01-02"))
	}
	snap := s.snapshots[i-1]
	out := make([]string, len(snap.Tickers))
	copy(out, snap.Tickers)
	return out, nil
}

// Snapshots returns the loaded snapshot count, for status reporting.
func (s *Store) Snapshots() int { return len(s.snapshots) }
