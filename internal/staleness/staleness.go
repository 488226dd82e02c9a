// Package staleness decides when locally cached datasets must be refreshed.
// All predicates are pure; triggering the download and persisting updated
// metadata are the caller's responsibility.
package staleness

import (
	"time"

	"github.com/fundament-io/fundament/internal/model"
)

// NeedsRefresh reports whether a dataset is too old to query. Missing
// metadata is infinitely stale, and a non-positive maxStaleDays always
// forces a refresh.
func NeedsRefresh(meta *model.CacheMetadata, maxStaleDays int, now time.Time) bool {
	if meta == nil || maxStaleDays <= 0 {
		return true
	}
	return now.Sub(meta.LastDownloadedAt) > time.Duration(maxStaleDays)*24*time.Hour
}

// Age returns how old the cached dataset is, or zero for missing metadata.
func Age(meta *model.CacheMetadata, now time.Time) time.Duration {
	if meta == nil {
		return 0
	}
	return now.Sub(meta.LastDownloadedAt)
}
