package rates

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"salesetl/pkg/contracts/domain"
)

const defaultCacheSize = 16

// Source resolves the rate table for a base currency
type Source interface {
	Resolve(ctx context.Context, base string) *Resolution
}

type cacheEntry struct {
	resolution *Resolution
	cachedAt   time.Time
	expiresAt  time.Time
	hits       int
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Entries  int     `json:"entries"`
	MaxSize  int     `json:"max_size"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
	TTL      float64 `json:"ttl_seconds"`
}

// CachedResolver keeps live resolutions per base currency for a TTL.
// Fallback resolutions are never cached so the next run retries the live
// source.
type CachedResolver struct {
	source  Source
	ttl     time.Duration
	maxSize int
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64
}

// NewCachedResolver wraps source. A non-positive ttl disables caching.
func NewCachedResolver(source Source, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedResolver{
		source:  source,
		ttl:     ttl,
		maxSize: defaultCacheSize,
		logger:  logger.With("component", "rate_cache"),
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Resolve returns a cached live resolution for base when one is fresh,
// otherwise it asks the wrapped source
func (c *CachedResolver) Resolve(ctx context.Context, base string) *Resolution {
	if c.ttl <= 0 {
		return c.source.Resolve(ctx, base)
	}
	key := strings.ToUpper(strings.TrimSpace(base))

	if res, ok := c.get(key); ok {
		c.logger.DebugContext(ctx, "Exchange rates served from cache", slog.String("base", key))
		return res
	}

	res := c.source.Resolve(ctx, key)
	if res != nil && res.Source == domain.RateSourceLive {
		c.set(key, res)
	}
	return res
}

func (c *CachedResolver) get(key string) (*Resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	entry.hits++
	c.entries[key] = entry
	c.hits++
	return entry.resolution, true
}

func (c *CachedResolver) set(key string, res *Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	now := c.now()
	c.entries[key] = cacheEntry{resolution: res, cachedAt: now, expiresAt: now.Add(c.ttl)}
}

func (c *CachedResolver) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.cachedAt.Before(oldest) {
			oldestKey, oldest = key, entry.cachedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Invalidate drops the cached resolution for base
func (c *CachedResolver) Invalidate(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, strings.ToUpper(strings.TrimSpace(base)))
}

// Stats returns a snapshot of the cache counters
func (c *CachedResolver) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Entries: len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		TTL:     c.ttl.Seconds(),
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRatio = float64(c.hits) / float64(total)
	}
	return stats
}
