// Package search wires internal/query, internal/executor and
// internal/mapping together into the request-level operations spec §4
// describes. It also provides a response Cache modelled on the teacher's
// `app/actions/search/search.go: searchCache`.
package search

import (
	"time"

	"github.com/karlseguin/ccache"

	"github.com/openaleph/openaleph-search/internal/metrics"
)

// Cache memoizes search responses by request signature for a short TTL,
// grounded on the teacher's `ccache.New(ccache.Configure().MaxSize(10000))`
// / `searchCache.Fetch(key, ttl, fn)` pattern. Service carries one in its
// Cache field, but Service's request methods do not consult it.
type Cache struct {
	cache *ccache.Cache
	ttl   time.Duration
}

// NewCache builds a Cache holding up to maxSize entries, each valid for
// ttl.
func NewCache(maxSize int64, ttl time.Duration) *Cache {
	return &Cache{
		cache: ccache.New(ccache.Configure().MaxSize(maxSize)),
		ttl:   ttl,
	}
}

// Fetch returns the cached value for key, computing and storing it via fn
// on a miss.
func (c *Cache) Fetch(key string, fn func() (interface{}, error)) (interface{}, error) {
	if item := c.cache.Get(key); item != nil && !item.Expired() {
		metrics.CacheHits.Inc()
		return item.Value(), nil
	}
	metrics.CacheMisses.Inc()
	item, err := c.cache.Fetch(key, c.ttl, fn)
	if err != nil {
		return nil, err
	}
	return item.Value(), nil
}

// Purge drops every cached entry at once (spec §9's cache-invalidation
// decision: coarse, whole-cache purge rather than per-dataset tracking).
// The indexing path does not call it.
func (c *Cache) Purge() {
	c.cache.Clear()
}
