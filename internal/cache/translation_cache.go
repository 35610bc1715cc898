package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/tesseract-hub/translation-gateway/internal/metrics"
)

// DefaultTTL is how long a translation result stays valid
const DefaultTTL = time.Hour

// ResultCache memoizes translation outputs
type ResultCache interface {
	// Lookup returns the cached text when an entry exists and is younger than the TTL
	Lookup(key string) (string, bool)

	// Store records text under key, replacing any previous entry
	Store(key, text string)
}

// CachedTranslation represents a cached translation entry
type CachedTranslation struct {
	TranslatedText string
	CachedAt       time.Time
}

// MemoryResultCache is a process-local ResultCache.
//
// Entries are only checked for age on read. Nothing is ever evicted: an
// expired entry stays in the map until the same key is stored again, so
// memory grows with the number of distinct keys seen.
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]CachedTranslation
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a MemoryResultCache
type Option func(*MemoryResultCache)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *MemoryResultCache) {
		c.now = now
	}
}

// NewMemoryResultCache creates an in-memory cache with the given TTL
func NewMemoryResultCache(ttl time.Duration, opts ...Option) *MemoryResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryResultCache{
		entries: make(map[string]CachedTranslation),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildCacheKey joins the lookup tuple. No normalization is applied.
func BuildCacheKey(provider, sourceLang, targetLang, text string) string {
	return strings.Join([]string{provider, sourceLang, targetLang, text}, ":")
}

// Lookup implements ResultCache
func (c *MemoryResultCache) Lookup(key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	hit := ok && c.now().Sub(entry.CachedAt) < c.ttl
	metrics.CacheLookup(hit)
	if !hit {
		return "", false
	}
	return entry.TranslatedText, true
}

// Store implements ResultCache
func (c *MemoryResultCache) Store(key, text string) {
	c.mu.Lock()
	c.entries[key] = CachedTranslation{
		TranslatedText: text,
		CachedAt:       c.now(),
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries, stale ones included
func (c *MemoryResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the configured time-to-live
func (c *MemoryResultCache) TTL() time.Duration {
	return c.ttl
}
