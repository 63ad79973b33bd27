package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sells-group/kinship-cli/internal/model"
)

// ReportCache wraps a Store and keeps recently read reports in memory.
// Reports of complete runs are immutable; entries expire by TTL only.
type ReportCache struct {
	Store
	cache *gocache.Cache
}

// NewReportCache caches reports from st for ttl. A non-positive ttl keeps
// entries until Close.
func NewReportCache(st Store, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &ReportCache{
		Store: st,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// GetReport returns the cached report for runID, loading it on a miss.
// Callers must not mutate the returned report.
func (c *ReportCache) GetReport(ctx context.Context, runID string) (*model.Report, error) {
	if v, ok := c.cache.Get(runID); ok {
		return v.(*model.Report), nil
	}
	rep, err := c.Store.GetReport(ctx, runID)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(runID, rep)
	return rep, nil
}

// Len reports the number of cached reports.
func (c *ReportCache) Len() int {
	return c.cache.ItemCount()
}

// Close flushes the cache and closes the wrapped store.
func (c *ReportCache) Close() error {
	c.cache.Flush()
	return c.Store.Close()
}
