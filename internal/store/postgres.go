package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fundament-io/fundament/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, kept small so tests can
// substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS filing_periods (
	ticker     TEXT NOT NULL,
	period_end DATE NOT NULL,
	filed      DATE NOT NULL,
	kind       TEXT NOT NULL,
	metrics    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (ticker, period_end, kind)
);

CREATE TABLE IF NOT EXISTS cache_metadata (
	dataset_id         TEXT PRIMARY KEY,
	last_downloaded_at TIMESTAMPTZ NOT NULL,
	etag               TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_filing_periods_ticker ON filing_periods(ticker);
CREATE INDEX IF NOT EXISTS idx_filing_periods_filed ON filing_periods(ticker, filed);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSeries(ctx context.Context, ticker string, series model.FilingSeries) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM filing_periods WHERE ticker = $1`, ticker,
	); err != nil {
		return eris.Wrapf(err, "postgres: clear series %s", ticker)
	}

	now := time.Now().UTC()
	for _, p := range series {
		metricsJSON, err := json.Marshal(p.Metrics)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal metrics for %s", ticker)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO filing_periods (ticker, period_end, filed, kind, metrics, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			ticker, p.PeriodEnd, p.Filed, string(p.Kind), metricsJSON, now,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert period %s %s", ticker, p.PeriodEnd.Format(dateLayout))
		}
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: commit series %s", ticker)
}

func (s *PostgresStore) GetSeries(ctx context.Context, ticker string) (model.FilingSeries, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT period_end, filed, kind, metrics FROM filing_periods
		 WHERE ticker = $1 ORDER BY filed, period_end, kind`,
		ticker,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get series %s", ticker)
	}
	defer rows.Close()

	var series model.FilingSeries
	for rows.Next() {
		var p model.FilingPeriod
		var kind string
		var metricsJSON []byte

		if err := rows.Scan(&p.PeriodEnd, &p.Filed, &kind, &metricsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan period")
		}
		p.Ticker = ticker
		p.Kind = model.PeriodKind(kind)
		if err := json.Unmarshal(metricsJSON, &p.Metrics); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal metrics")
		}
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate series %s", ticker)
	}
	if len(series) == 0 {
		return nil, eris.Wrapf(ErrSeriesNotFound, "%s", ticker)
	}
	return series, nil
}

func (s *PostgresStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT ticker FROM filing_periods ORDER BY ticker`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tickers")
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticker")
		}
		tickers = append(tickers, t)
	}
	return tickers, eris.Wrap(rows.Err(), "postgres: list tickers iterate")
}

func (s *PostgresStore) GetCacheMetadata(ctx context.Context, datasetID string) (*model.CacheMetadata, error) {
	var meta model.CacheMetadata
	err := s.pool.QueryRow(ctx,
		`SELECT dataset_id, last_downloaded_at, etag FROM cache_metadata WHERE dataset_id = $1`,
		datasetID,
	).Scan(&meta.DatasetID, &meta.LastDownloadedAt, &meta.ETag)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get cache metadata %s", datasetID)
	}
	return &meta, nil
}

func (s *PostgresStore) SetCacheMetadata(ctx context.Context, meta model.CacheMetadata) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cache_metadata (dataset_id, last_downloaded_at, etag) VALUES ($1, $2, $3)
		 ON CONFLICT (dataset_id) DO UPDATE SET
			last_downloaded_at = EXCLUDED.last_downloaded_at,
			etag = EXCLUDED.etag`,
		meta.DatasetID, meta.LastDownloadedAt.UTC(), meta.ETag,
	)
	return eris.Wrapf(err, "postgres: set cache metadata %s", meta.DatasetID)
}
