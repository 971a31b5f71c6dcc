package blocklist

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
	"github.com/maksimkurb/tinydnsproxy/src/internal/hashing"
	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
	"github.com/maksimkurb/tinydnsproxy/src/internal/metrics"
)

// SourceStats describes the outcome of the last sync of one source.
type SourceStats struct {
	Source    string `json:"source"`
	Entries   int    `json:"entries"`
	LastError string `json:"last_error,omitempty"`
}

// Stats describes the active block list.
type Stats struct {
	Domains      int           `json:"domains"`
	Checksum     string        `json:"checksum"`
	LastRefresh  time.Time     `json:"last_refresh"`
	LastDuration time.Duration `json:"last_refresh_duration_ns"`
	Sources      []SourceStats `json:"sources"`
}

// Cache holds the active set of blocked domains.
type Cache struct {
	sources []Source
	metrics *metrics.Metrics

	// refreshMu serializes refresh passes, mu guards the published set.
	refreshMu sync.Mutex
	mu        sync.RWMutex
	domains   *hashing.ChecksumStringSet
	stats     Stats
}

// NewCache returns an empty cache that refreshes from sources.
// m may be nil.
func NewCache(sources []Source, m *metrics.Metrics) *Cache {
	return &Cache{
		sources: sources,
		metrics: m,
		domains: hashing.NewChecksumStringSet(),
	}
}

// Check reports whether domain is in the active set. The match is exact.
// If the set is being swapped the domain is reported as not blocked.
func (c *Cache) Check(domain string) bool {
	if !c.mu.TryRLock() {
		log.Debugf("Block list is busy, not blocking %s", domain)
		return false
	}
	defer c.mu.RUnlock()

	return c.domains.Contains(domain)
}

// Refresh fetches all sources into a new set and publishes it.
//
// A failing source is logged and skipped. Refresh returns an error only if
// another pass is already running (apperrors.ErrSync) or ctx is done before
// the pass completes. In both cases the active set is left untouched.
func (c *Cache) Refresh(ctx context.Context) error {
	if !c.refreshMu.TryLock() {
		c.metrics.RefreshCompleted(metrics.RefreshSkipped)
		return apperrors.NewSyncError("block list refresh is already in progress")
	}
	defer c.refreshMu.Unlock()

	started := time.Now()
	set := hashing.NewChecksumStringSet()
	sourceStats := make([]SourceStats, 0, len(c.sources))

	for _, src := range c.sources {
		stat := SourceStats{Source: src.String()}
		err := src.Fetch(ctx, func(host string) {
			set.Put(host)
			stat.Entries++
		})
		if err != nil {
			log.Errorf("Couldn't sync %s: %v", src, err)
			stat.LastError = err.Error()
			c.metrics.SourceFailed(src.String())
		} else {
			log.Debugf("Synced %s: %d entries", src, stat.Entries)
		}
		sourceStats = append(sourceStats, stat)

		if ctx.Err() != nil {
			c.metrics.RefreshCompleted(metrics.RefreshFailed)
			return ctx.Err()
		}
	}

	c.mu.Lock()
	unchanged := c.domains.GetChecksum() == set.GetChecksum()
	c.domains = set
	c.stats = Stats{
		Domains:      set.Size(),
		Checksum:     set.GetChecksum(),
		LastRefresh:  time.Now(),
		LastDuration: time.Since(started),
		Sources:      sourceStats,
	}
	c.mu.Unlock()

	c.metrics.SetBlocklistDomains(set.Size())
	c.metrics.RefreshCompleted(metrics.RefreshOK)

	if unchanged {
		log.Infof("Block list is not changed, %d domains", set.Size())
	} else {
		log.Infof("Block list updated, %d domains", set.Size())
	}
	return nil
}

// Size returns the number of domains in the active set.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.domains.Size()
}

// Stats returns a copy of the stats of the last completed refresh.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Domains = c.domains.Size()
	stats.Checksum = c.domains.GetChecksum()
	stats.Sources = append([]SourceStats(nil), c.stats.Sources...)
	return stats
}
