package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundament-io/fundament/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetSeries_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT period_end, filed, kind, metrics FROM filing_periods`).
		WithArgs("NOPE").
		WillReturnRows(pgxmock.NewRows([]string{"period_end", "filed", "kind", "metrics"}))

	_, err := s.GetSeries(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeriesNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSeries_ScansPeriods(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	filed := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT period_end, filed, kind, metrics FROM filing_periods`).
		WithArgs("ACME").
		WillReturnRows(pgxmock.NewRows([]string{"period_end", "filed", "kind", "metrics"}).
			AddRow(end, filed, "annual", []byte(`{"revenue":1500000000}`)))

	series, err := s.GetSeries(context.Background(), "ACME")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "ACME", series[0].Ticker)
	assert.Equal(t, model.Annual, series[0].Kind)
	assert.Equal(t, 1.5e9, series[0].Metrics["revenue"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSeries_Transactional(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM filing_periods WHERE ticker = \$1`).
		WithArgs("ACME").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO filing_periods`).
		WithArgs("ACME", pgxmock.AnyArg(), pgxmock.AnyArg(), "annual", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	series := model.FilingSeries{{
		Ticker:    "ACME",
		PeriodEnd: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Filed:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Kind:      model.Annual,
		Metrics:   map[string]float64{"revenue": 1.5e9},
	}}
	err := s.SaveSeries(context.Background(), "ACME", series)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSeries_RollsBackOnInsertError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM filing_periods WHERE ticker = \$1`).
		WithArgs("ACME").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO filing_periods`).
		WithArgs("ACME", pgxmock.AnyArg(), pgxmock.AnyArg(), "annual", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	series := model.FilingSeries{{
		Ticker:    "ACME",
		PeriodEnd: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Filed:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Kind:      model.Annual,
		Metrics:   map[string]float64{"revenue": 1.5e9},
	}}
	err := s.SaveSeries(context.Background(), "ACME", series)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCacheMetadata_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT dataset_id, last_downloaded_at, etag FROM cache_metadata`).
		WithArgs("companyfacts").
		WillReturnError(pgx.ErrNoRows)

	meta, err := s.GetCacheMetadata(context.Background(), "companyfacts")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCacheMetadata_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT`).
		WithArgs("companyfacts", pgxmock.AnyArg(), `"abc123"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetCacheMetadata(context.Background(), model.CacheMetadata{
		DatasetID:        "companyfacts",
		LastDownloadedAt: time.Now().UTC(),
		ETag:             `"abc123"`,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
