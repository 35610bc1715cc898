package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tesseract-hub/translation-gateway/internal/clients"
)

// DefaultCatalogLoadTimeout bounds a single catalogue fetch
const DefaultCatalogLoadTimeout = 30 * time.Second

// CatalogLoader fetches a provider's supported languages
type CatalogLoader func(ctx context.Context, provider clients.ProviderName) (map[string]string, error)

// LanguageCatalog memoizes supported-language lists per provider for the
// lifetime of the process. Failed fetches are not remembered.
//
// A fetch shared by concurrent callers is detached from the caller that
// started it; each caller only stops waiting when its own context ends.
type LanguageCatalog struct {
	load        CatalogLoader
	loadTimeout time.Duration
	group       singleflight.Group

	mu      sync.RWMutex
	entries map[clients.ProviderName]map[string]string
}

// CatalogOption configures a LanguageCatalog
type CatalogOption func(*LanguageCatalog)

// WithLoadTimeout overrides how long a shared fetch may run
func WithLoadTimeout(timeout time.Duration) CatalogOption {
	return func(c *LanguageCatalog) {
		if timeout > 0 {
			c.loadTimeout = timeout
		}
	}
}

// NewLanguageCatalog creates a catalog cache over loader
func NewLanguageCatalog(load CatalogLoader, opts ...CatalogOption) *LanguageCatalog {
	c := &LanguageCatalog{
		load:        load,
		loadTimeout: DefaultCatalogLoadTimeout,
		entries:     make(map[clients.ProviderName]map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the memoized catalogue, fetching it on first use
func (c *LanguageCatalog) Get(ctx context.Context, provider clients.ProviderName) (map[string]string, error) {
	if languages, ok := c.lookup(provider); ok {
		return languages, nil
	}

	ch := c.group.DoChan(string(provider), func() (interface{}, error) {
		if cached, ok := c.lookup(provider); ok {
			return cached, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		fetched, err := c.load(loadCtx, provider)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[provider] = fetched
		c.mu.Unlock()
		return fetched, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]string), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *LanguageCatalog) lookup(provider clients.ProviderName) (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	languages, ok := c.entries[provider]
	return languages, ok
}

// Size returns how many providers have a memoized catalogue
func (c *LanguageCatalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
