package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/tesseract-hub/translation-gateway/internal/metrics"
)

// BreakerConfig configures the per-provider circuit breaker
type BreakerConfig struct {
	Enabled     bool
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Registry maps provider names to factories. Every Get builds a fresh
// handle; breakers live on the registry so failures are tracked across requests.
//
// Calls through a handle:
//   - fail fast while the provider's breaker is open
//   - are counted in provider metrics
//   - return *ProviderError on failure
type Registry struct {
	factories map[ProviderName]ProviderFactory
	breakers  map[ProviderName]*gobreaker.CircuitBreaker
	logger    *logrus.Entry
}

// ProviderStatus summarises one provider for health reporting
type ProviderStatus struct {
	Provider   ProviderName `json:"provider"`
	Configured bool         `json:"configured"`
	Breaker    string       `json:"breaker,omitempty"`
}

// NewRegistry creates a registry over the given factories
func NewRegistry(factories map[ProviderName]ProviderFactory, breaker BreakerConfig, logger *logrus.Entry) *Registry {
	r := &Registry{
		factories: make(map[ProviderName]ProviderFactory, len(factories)),
		breakers:  make(map[ProviderName]*gobreaker.CircuitBreaker),
		logger:    logger,
	}

	names := make([]string, 0, len(factories))
	for name, factory := range factories {
		if factory == nil {
			continue
		}
		r.factories[name] = factory
		names = append(names, string(name))

		if breaker.Enabled {
			r.breakers[name] = newBreaker(name, breaker, logger)
		}
	}

	logger.WithField("providers", names).Info("Provider registry initialized")

	return r
}

func newBreaker(name ProviderName, cfg BreakerConfig, logger *logrus.Entry) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("provider-%s", name),
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about the provider
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from":            from.String(),
				"to":              to.String(),
			}).Warn("Provider circuit breaker state changed")
		},
	})
}

// Get validates the provider name and returns a fresh handle
func (r *Registry) Get(name string) (TranslationProvider, error) {
	providerName, err := ParseProviderName(name)
	if err != nil {
		return nil, err
	}

	factory, ok := r.factories[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrUnsupportedProvider, name)
	}

	return &guardedProvider{
		inner:   factory(),
		breaker: r.breakers[providerName],
		logger:  r.logger,
	}, nil
}

// LoadLanguages fetches the supported-language catalogue for a provider
func (r *Registry) LoadLanguages(ctx context.Context, name ProviderName) (map[string]string, error) {
	provider, err := r.Get(string(name))
	if err != nil {
		return nil, err
	}
	return provider.SupportedLanguages(ctx)
}

// Status reports configuration and breaker state for every registered provider
func (r *Registry) Status() []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(r.factories))
	for _, name := range AllProviders() {
		factory, ok := r.factories[name]
		if !ok {
			continue
		}

		status := ProviderStatus{Provider: name, Configured: true}
		if c, ok := factory().(interface{ IsConfigured() bool }); ok {
			status.Configured = c.IsConfigured()
		}
		if b, ok := r.breakers[name]; ok {
			status.Breaker = b.State().String()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// guardedProvider wraps a provider handle with the breaker, metrics and error normalization
type guardedProvider struct {
	inner   TranslationProvider
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Entry
}

func (p *guardedProvider) Name() ProviderName {
	return p.inner.Name()
}

func (p *guardedProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (*TranslationResult, error) {
	out, err := p.call("translate", func() (interface{}, error) {
		return p.inner.Translate(ctx, text, sourceLang, targetLang)
	})
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"provider":    p.Name(),
			"source_lang": sourceLang,
			"target_lang": targetLang,
			"error":       err.Error(),
		}).Warn("Translation failed")
		return nil, err
	}
	return out.(*TranslationResult), nil
}

func (p *guardedProvider) SupportedLanguages(ctx context.Context) (map[string]string, error) {
	out, err := p.call("languages", func() (interface{}, error) {
		return p.inner.SupportedLanguages(ctx)
	})
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"provider": p.Name(),
			"error":    err.Error(),
		}).Warn("Fetching supported languages failed")
		return nil, err
	}
	return out.(map[string]string), nil
}

func (p *guardedProvider) call(op string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()

	var (
		out interface{}
		err error
	)
	if p.breaker != nil {
		out, err = p.breaker.Execute(fn)
	} else {
		out, err = fn()
	}

	metrics.ProviderCall(string(p.Name()), op, err, time.Since(start))

	if err != nil {
		return nil, newProviderError(p.Name(), op, err)
	}
	return out, nil
}
