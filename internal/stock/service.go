package stock

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundament-io/fundament/internal/archive"
	"github.com/fundament-io/fundament/internal/refdata"
	"github.com/fundament-io/fundament/internal/store"
	"github.com/fundament-io/fundament/pkg/polygon"
)

// Service loads Stock handles and serves index membership queries. It owns
// the freshness policy: Load refuses nothing itself, but callers can gate on
// EnsureFresh first.
type Service struct {
	store   store.Store
	ref     *refdata.Store
	market  polygon.Client
	archive *archive.Manager
}

// NewService wires a stock service. market may be nil when no Polygon key is
// configured; price-dependent accessors then fail with a clear error.
func NewService(st store.Store, ref *refdata.Store, market polygon.Client, arch *archive.Manager) *Service {
	return &Service{store: st, ref: ref, market: market, archive: arch}
}

// EnsureFresh refreshes the underlying EDGAR datasets if stale.
func (s *Service) EnsureFresh(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	return s.archive.EnsureFresh(ctx)
}

// Load builds an immutable Stock handle from the persisted series. The
// two-phase shape (load, then query) keeps every accessor deterministic for
// a given query date.
func (s *Service) Load(ctx context.Context, ticker string) (*Stock, error) {
	series, err := s.store.GetSeries(ctx, ticker)
	if err != nil {
		return nil, eris.Wrapf(err, "stock: load %s", ticker)
	}

	zap.L().Debug("stock loaded",
		zap.String("ticker", ticker),
		zap.Int("periods", len(series)),
	)
	return &Stock{
		ticker: ticker,
		series: series,
		ref:    s.ref,
		market: s.market,
	}, nil
}

// IndexMembers returns the index membership as of the given date.
func (s *Service) IndexMembers(asOf time.Time) ([]string, error) {
	return s.ref.MembersAsOf(asOf)
}

// Tickers lists every ticker with a persisted series.
func (s *Service) Tickers(ctx context.Context) ([]string, error) {
	return s.store.ListTickers(ctx)
}
