// Package archive maintains the local copy of the EDGAR bulk company facts
// archive and the ticker to CIK mapping, refreshing them when stale.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fundament-io/fundament/internal/fetcher"
	"github.com/fundament-io/fundament/internal/model"
	"github.com/fundament-io/fundament/internal/staleness"
	"github.com/fundament-io/fundament/internal/store"
)

// Dataset identifiers used as cache metadata keys.
const (
	DatasetCompanyFacts = "companyfacts"
	DatasetTickerCIK    = "company_tickers"
)

// Default EDGAR bulk data endpoints.
const (
	companyFactsURL = "https://www.sec.gov/Archives/edgar/daily-index/xbrl/companyfacts.zip"
	tickerCIKURL    = "https://www.sec.gov/files/company_tickers.json"
)

var (
	// ErrArchiveMissing indicates the bulk archive has never been downloaded.
	ErrArchiveMissing = eris.New("company facts archive missing")

	// ErrUnknownCIK indicates a ticker absent from the EDGAR ticker mapping.
	ErrUnknownCIK = eris.New("no CIK mapping for ticker")
)

// Manager owns the on-disk EDGAR datasets. It implements normalize.Source
// by streaming per-company JSON straight out of the bulk ZIP.
type Manager struct {
	fetcher      fetcher.Fetcher
	store        store.Store
	dataDir      string
	maxStaleDays int

	mu   sync.Mutex
	ciks map[string]int64 // ticker -> CIK, loaded on first use
}

// NewManager creates an archive manager rooted at dataDir.
func NewManager(f fetcher.Fetcher, st store.Store, dataDir string, maxStaleDays int) *Manager {
	return &Manager{
		fetcher:      f,
		store:        st,
		dataDir:      dataDir,
		maxStaleDays: maxStaleDays,
	}
}

func (m *Manager) zipPath() string  { return filepath.Join(m.dataDir, "companyfacts.zip") }
func (m *Manager) ciksPath() string { return filepath.Join(m.dataDir, "company_tickers.json") }

// EnsureFresh downloads the bulk datasets if their cache metadata says they
// are stale. It never refreshes datasets that are still within the staleness
// window.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	now := time.Now().UTC()

	if err := m.refreshIfStale(ctx, DatasetCompanyFacts, companyFactsURL, m.zipPath(), now); err != nil {
		return err
	}
	if err := m.refreshIfStale(ctx, DatasetTickerCIK, tickerCIKURL, m.ciksPath(), now); err != nil {
		return err
	}
	return nil
}

// Refresh unconditionally re-downloads both datasets. The empty ETag forces
// a full transfer even when the upstream copy is unchanged.
func (m *Manager) Refresh(ctx context.Context) error {
	now := time.Now().UTC()
	if err := m.download(ctx, DatasetCompanyFacts, companyFactsURL, m.zipPath(), now, ""); err != nil {
		return err
	}
	return m.download(ctx, DatasetTickerCIK, tickerCIKURL, m.ciksPath(), now, "")
}

func (m *Manager) refreshIfStale(ctx context.Context, datasetID, url, path string, now time.Time) error {
	meta, err := m.store.GetCacheMetadata(ctx, datasetID)
	if err != nil {
		return err
	}
	if !staleness.NeedsRefresh(meta, m.maxStaleDays, now) {
		zap.L().Debug("dataset fresh, skipping download",
			zap.String("dataset", datasetID),
			zap.Duration("age", staleness.Age(meta, now)),
		)
		return nil
	}
	etag := ""
	if meta != nil {
		etag = meta.ETag
	}
	return m.download(ctx, datasetID, url, path, now, etag)
}

func (m *Manager) download(ctx context.Context, datasetID, url, path string, now time.Time, etag string) error {
	log := zap.L().With(zap.String("dataset", datasetID))

	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return eris.Wrap(err, "archive: create data dir")
	}
	// A stored ETag only vouches for a file still present on disk.
	if _, err := os.Stat(path); err != nil {
		etag = ""
	}

	var (
		n       int64
		newETag string
	)
	if datasetID == DatasetCompanyFacts {
		// The bulk zip is large and changes rarely, so the refresh is
		// ETag-gated: a 304 keeps the on-disk archive and just renews the
		// staleness clock.
		body, respETag, changed, err := m.fetcher.DownloadIfChanged(ctx, url, etag)
		if err != nil {
			return eris.Wrapf(err, "archive: download %s", datasetID)
		}
		if !changed {
			log.Info("dataset unchanged upstream", zap.String("etag", etag))
			return m.store.SetCacheMetadata(ctx, model.CacheMetadata{
				DatasetID:        datasetID,
				LastDownloadedAt: now,
				ETag:             etag,
			})
		}
		log.Info("downloading dataset", zap.String("url", url))
		n, err = install(body, path)
		if err != nil {
			return eris.Wrapf(err, "archive: install %s", datasetID)
		}
		newETag = respETag
	} else {
		log.Info("downloading dataset", zap.String("url", url))
		tmp := path + ".partial"
		var err error
		n, err = m.fetcher.DownloadToFile(ctx, url, tmp)
		if err != nil {
			os.Remove(tmp) //nolint:errcheck
			return eris.Wrapf(err, "archive: download %s", datasetID)
		}
		if err := os.Rename(tmp, path); err != nil {
			return eris.Wrapf(err, "archive: install %s", datasetID)
		}
	}

	if err := m.store.SetCacheMetadata(ctx, model.CacheMetadata{
		DatasetID:        datasetID,
		LastDownloadedAt: now,
		ETag:             newETag,
	}); err != nil {
		return err
	}

	if datasetID == DatasetTickerCIK {
		m.mu.Lock()
		m.ciks = nil // force reload on next lookup
		m.mu.Unlock()
	}

	log.Info("dataset downloaded", zap.Int64("bytes", n))
	return nil
}

// install streams body into path through a temp file so a failed transfer
// never clobbers a working archive.
func install(body io.ReadCloser, path string) (int64, error) {
	defer body.Close() //nolint:errcheck

	tmp := path + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp) //nolint:errcheck
		return n, err
	}
	return n, os.Rename(tmp, path)
}

// Meta returns the cache metadata for a dataset, nil if never downloaded.
func (m *Manager) Meta(ctx context.Context, datasetID string) (*model.CacheMetadata, error) {
	return m.store.GetCacheMetadata(ctx, datasetID)
}

// CompanyCount reports how many per-company entries the bulk archive holds.
func (m *Manager) CompanyCount() (int, error) {
	if _, err := os.Stat(m.zipPath()); err != nil {
		return 0, eris.Wrapf(ErrArchiveMissing, "%s", m.zipPath())
	}
	names, err := fetcher.ListZIPEntries(m.zipPath())
	if err != nil {
		return 0, eris.Wrap(err, "archive: list entries")
	}
	return len(names), nil
}

// RawFacts streams one company's facts JSON out of the bulk archive. The
// archive entry for CIK 320193 is named CIK0000320193.json.
func (m *Manager) RawFacts(ticker string) (io.ReadCloser, error) {
	cik, err := m.lookupCIK(ticker)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(m.zipPath()); err != nil {
		return nil, eris.Wrapf(ErrArchiveMissing, "%s", m.zipPath())
	}

	entry := fmt.Sprintf("CIK%010d.json", cik)
	rc, err := fetcher.OpenZIPEntry(m.zipPath(), entry)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: facts for %s (CIK %d)", ticker, cik)
	}
	return rc, nil
}

type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

func (m *Manager) lookupCIK(ticker string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ciks == nil {
		f, err := os.Open(m.ciksPath())
		if err != nil {
			return 0, eris.Wrapf(ErrArchiveMissing, "ticker mapping: %s", m.ciksPath())
		}
		defer f.Close() //nolint:errcheck

		// The mapping is an object keyed by row index, not an array.
		entries, err := fetcher.DecodeJSONObject[map[string]tickerEntry](f)
		if err != nil {
			return 0, eris.Wrap(err, "archive: parse ticker mapping")
		}

		m.ciks = make(map[string]int64, len(*entries))
		for _, e := range *entries {
			m.ciks[strings.ToUpper(e.Ticker)] = e.CIK
		}
	}

	cik, ok := m.ciks[strings.ToUpper(ticker)]
	if !ok {
		return 0, eris.Wrapf(ErrUnknownCIK, "%s", ticker)
	}
	return cik, nil
}
