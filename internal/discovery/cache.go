package discovery

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"moviemate/apiservice/internal/metrics"
)

const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 1000
)

// Cache maps a request fingerprint to an encoded response payload.
// Get reports false both for keys never set and for expired entries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type MemoryCacheConfig struct {
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
}

type memoryEntry struct {
	value    []byte
	storedAt time.Time
}

// MemoryCache is a bounded LRU with lazy TTL expiry: expired entries are
// reported absent on read and left in place until pushed out by newer keys.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	entries *lru.Cache[string, memoryEntry]
}

func NewMemoryCache(cfg MemoryCacheConfig) *MemoryCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, memoryEntry](maxEntries)
	return &MemoryCache{ttl: ttl, now: now, entries: entries}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	entry, ok := c.entries.Peek(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}
	c.entries.Get(key)
	return entry.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	c.entries.Add(key, memoryEntry{
		value:    append([]byte(nil), value...),
		storedAt: c.now(),
	})
}

func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Fingerprint builds a cache key from an operation name and its parameters.
// Parameters are NFC-normalized, whitespace-collapsed and case-folded, then
// escaped so a ':' inside a value cannot collide with the separator.
func Fingerprint(operation string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, operation)
	for _, param := range params {
		parts = append(parts, url.QueryEscape(normalizeParam(param)))
	}
	return strings.Join(parts, ":")
}

func normalizeParam(raw string) string {
	value := norm.NFC.String(raw)
	value = strings.Join(strings.Fields(value), " ")
	return cases.Fold().String(value)
}

// cacheLoad decodes a cached payload into dest and counts the hit or miss.
func (s *Service) cacheLoad(ctx context.Context, operation, key string, dest any) bool {
	if s.cacheDisabled || s.cache == nil {
		return false
	}
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues(operation).Inc()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("discarding undecodable cache entry", slog.String("key", key), slog.String("error", err.Error()))
		metrics.CacheMissesTotal.WithLabelValues(operation).Inc()
		return false
	}
	metrics.CacheHitsTotal.WithLabelValues(operation).Inc()
	s.logger.Debug("cache hit", slog.String("operation", operation), slog.String("key", key))
	return true
}

func (s *Service) cacheStore(ctx context.Context, key string, value any) {
	if s.cacheDisabled || s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	s.cache.Set(ctx, key, data)
}
