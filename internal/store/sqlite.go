package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fundament-io/fundament/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS filing_periods (
	ticker     TEXT NOT NULL,
	period_end TEXT NOT NULL,
	filed      TEXT NOT NULL,
	kind       TEXT NOT NULL,
	metrics    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (ticker, period_end, kind)
);

CREATE TABLE IF NOT EXISTS cache_metadata (
	dataset_id         TEXT PRIMARY KEY,
	last_downloaded_at DATETIME NOT NULL,
	etag               TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_filing_periods_ticker ON filing_periods(ticker);
CREATE INDEX IF NOT EXISTS idx_filing_periods_filed ON filing_periods(ticker, filed);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const dateLayout = "2006-01-02"

func (s *SQLiteStore) SaveSeries(ctx context.Context, ticker string, series model.FilingSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM filing_periods WHERE ticker = ?`, ticker,
	); err != nil {
		return eris.Wrapf(err, "sqlite: clear series %s", ticker)
	}

	now := time.Now().UTC()
	for _, p := range series {
		metricsJSON, err := json.Marshal(p.Metrics)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal metrics for %s", ticker)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO filing_periods (ticker, period_end, filed, kind, metrics, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			ticker, p.PeriodEnd.Format(dateLayout), p.Filed.Format(dateLayout),
			string(p.Kind), string(metricsJSON), now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert period %s %s", ticker, p.PeriodEnd.Format(dateLayout))
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit series %s", ticker)
}

func (s *SQLiteStore) GetSeries(ctx context.Context, ticker string) (model.FilingSeries, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT period_end, filed, kind, metrics FROM filing_periods
		 WHERE ticker = ? ORDER BY filed, period_end, kind`,
		ticker,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get series %s", ticker)
	}
	defer rows.Close()

	var series model.FilingSeries
	for rows.Next() {
		p, err := scanPeriod(rows, ticker)
		if err != nil {
			return nil, err
		}
		series = append(series, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate series %s", ticker)
	}
	if len(series) == 0 {
		return nil, eris.Wrapf(ErrSeriesNotFound, "%s", ticker)
	}
	return series, nil
}

func (s *SQLiteStore) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT ticker FROM filing_periods ORDER BY ticker`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tickers")
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ticker")
		}
		tickers = append(tickers, t)
	}
	return tickers, eris.Wrap(rows.Err(), "sqlite: list tickers iterate")
}

func (s *SQLiteStore) GetCacheMetadata(ctx context.Context, datasetID string) (*model.CacheMetadata, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT dataset_id, last_downloaded_at, etag FROM cache_metadata WHERE dataset_id = ?`,
		datasetID,
	)

	var meta model.CacheMetadata
	err := row.Scan(&meta.DatasetID, &meta.LastDownloadedAt, &meta.ETag)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cache metadata %s", datasetID)
	}
	return &meta, nil
}

func (s *SQLiteStore) SetCacheMetadata(ctx context.Context, meta model.CacheMetadata) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_metadata (dataset_id, last_downloaded_at, etag) VALUES (?, ?, ?)
		 ON CONFLICT (dataset_id) DO UPDATE SET
			last_downloaded_at = excluded.last_downloaded_at,
			etag = excluded.etag`,
		meta.DatasetID, meta.LastDownloadedAt.UTC(), meta.ETag,
	)
	return eris.Wrapf(err, "sqlite: set cache metadata %s", meta.DatasetID)
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanPeriod(row scannable, ticker string) (*model.FilingPeriod, error) {
	var (
		endStr, filedStr, kind, metricsJSON string
	)
	if err := row.Scan(&endStr, &filedStr, &kind, &metricsJSON); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan period")
	}

	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse period end %q", endStr)
	}
	filed, err := time.Parse(dateLayout, filedStr)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse filed %q", filedStr)
	}

	p := model.FilingPeriod{
		Ticker:    ticker,
		PeriodEnd: end,
		Filed:     filed,
		Kind:      model.PeriodKind(kind),
	}
	if err := json.Unmarshal([]byte(metricsJSON), &p.Metrics); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metrics")
	}
	return &p, nil
}
