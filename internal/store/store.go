package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/fundament-io/fundament/internal/model"
)

// ErrSeriesNotFound indicates no normalized series is stored for a ticker.
var ErrSeriesNotFound = eris.New("series not found")

// Store defines the persistence interface for normalized filing series and
// dataset cache metadata.
type Store interface {
	// Series. SaveSeries is an idempotent full rewrite of the company's
	// stored series; partial writes are never visible.
	SaveSeries(ctx context.Context, ticker string, series model.FilingSeries) error
	GetSeries(ctx context.Context, ticker string) (model.FilingSeries, error)
	ListTickers(ctx context.Context) ([]string, error)

	// Cache metadata. GetCacheMetadata returns (nil, nil) for an unknown
	// dataset; missing metadata means infinitely stale.
	GetCacheMetadata(ctx context.Context, datasetID string) (*model.CacheMetadata, error)
	SetCacheMetadata(ctx context.Context, meta model.CacheMetadata) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
