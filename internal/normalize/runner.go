package normalize

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fundament-io/fundament/internal/facts"
	"github.com/fundament-io/fundament/internal/model"
)

// Source supplies raw filing archives, one per company.
type Source interface {
	// RawFacts opens the raw company facts JSON for a ticker.
	RawFacts(ticker string) (io.ReadCloser, error)
}

// Saver persists a normalized series. SaveSeries must be an idempotent full
// rewrite of the company's stored series.
type Saver interface {
	SaveSeries(ctx context.Context, ticker string, series model.FilingSeries) error
}

// Result reports the outcome of normalizing one company.
type Result struct {
	Ticker  string
	Periods int
	Elapsed time.Duration
	Err     error
}

// Report summarizes a batch run. One malformed archive never aborts the
// batch; failures are recorded per company.
type Report struct {
	RunID   string
	Results []Result
}

// Succeeded returns the number of companies normalized without error.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of companies that failed.
func (r *Report) Failed() int { return len(r.Results) - r.Succeeded() }

// Runner normalizes batches of companies from a Source into a Saver.
type Runner struct {
	source      Source
	saver       Saver
	concurrency int
}

// NewRunner creates a batch runner. Concurrency bounds how many distinct
// companies are processed at once; each ticker is handled exactly once per
// run, so per-company serialization of writes holds.
func NewRunner(source Source, saver Saver, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Runner{source: source, saver: saver, concurrency: concurrency}
}

// Run normalizes every ticker and persists the resulting series. Duplicate
// tickers in the input are collapsed. The returned report lists one Result
// per company in input order.
func (r *Runner) Run(ctx context.Context, tickers []string) (*Report, error) {
	log := zap.L().With(zap.String("component", "normalize.runner"))

	seen := make(map[string]bool, len(tickers))
	var unique []string
	for _, t := range tickers {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}

	report := &Report{RunID: uuid.New().String()}
	results := make([]Result, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, ticker := range unique {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = Result{Ticker: ticker, Err: gctx.Err()}
				return gctx.Err()
			default:
			}

			start := time.Now()
			series, err := r.normalizeOne(gctx, ticker)
			results[i] = Result{
				Ticker:  ticker,
				Periods: len(series),
				Elapsed: time.Since(start),
				Err:     err,
			}
			if err != nil {
				log.Warn("normalization failed",
					zap.String("ticker", ticker),
					zap.Error(err),
				)
				return nil // isolate per-company failures
			}
			log.Info("normalized",
				zap.String("ticker", ticker),
				zap.Int("periods", len(series)),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "normalize: batch cancelled")
	}

	report.Results = results
	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].Ticker < report.Results[j].Ticker
	})

	log.Info("batch complete",
		zap.String("run_id", report.RunID),
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", report.Failed()),
	)
	return report, nil
}

func (r *Runner) normalizeOne(ctx context.Context, ticker string) (model.FilingSeries, error) {
	body, err := r.source.RawFacts(ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: open raw facts for %s", ticker)
	}
	defer body.Close() //nolint:errcheck

	cf, err := facts.ParseCompanyFacts(body)
	if err != nil {
		return nil, eris.Wrapf(ErrMalformedFiling, "%s: %s", ticker, err.Error())
	}

	series, err := Normalize(ticker, cf)
	if err != nil {
		return nil, err
	}

	if err := r.saver.SaveSeries(ctx, ticker, series); err != nil {
		return nil, eris.Wrapf(err, "normalize: persist series for %s", ticker)
	}
	return series, nil
}
