// internal/catalog/cached.go
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/models"
)

// CachedSource serves the last successful load until it is older than TTL.
type CachedSource struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	items    []*models.Cricketer
	loadedAt time.Time
}

// NewCachedSource wraps src. A non-positive ttl caches forever.
func NewCachedSource(src Source, ttl time.Duration) *CachedSource {
	return &CachedSource{src: src, ttl: ttl, now: time.Now}
}

// Load returns the cached list, refreshing it when expired. A failed refresh is returned to the
// caller and the stale entry is kept for the next attempt.
func (c *CachedSource) Load(ctx context.Context) ([]*models.Cricketer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items != nil && (c.ttl <= 0 || c.now().Sub(c.loadedAt) < c.ttl) {
		return c.items, nil
	}
	items, err := c.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.items = items
	c.loadedAt = c.now()
	return items, nil
}

// Invalidate drops the cached list.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
