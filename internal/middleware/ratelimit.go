package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/translation-gateway/internal/config"
	"github.com/tesseract-hub/translation-gateway/internal/metrics"
)

// Rate limited routes
const (
	RouteGetLang        = "/getLang"
	RouteTranslate      = "/translate"
	RouteTranslateURL   = "/translate_url"
	RouteDetectLanguage = "/detect_language"
)

// RatePolicy lists the windows enforced per client.
// Global windows are shared by all routes; route windows are counted per route.
type RatePolicy struct {
	Global []config.Limit
	Routes map[string][]config.Limit
}

// NewRatePolicy builds the policy table from configuration
func NewRatePolicy(cfg config.RateLimitConfig) RatePolicy {
	return RatePolicy{
		Global: []config.Limit{cfg.Daily, cfg.Hourly},
		Routes: map[string][]config.Limit{
			RouteGetLang:        {cfg.GetLang},
			RouteTranslate:      {cfg.Translate},
			RouteTranslateURL:   {cfg.TranslateURL},
			RouteDetectLanguage: {cfg.DetectLanguage},
		},
	}
}

// RateLimiter provides per-client fixed-window rate limiting
type RateLimiter struct {
	requests map[string]*rateLimitEntry
	mu       sync.Mutex
	policy   RatePolicy
	now      func() time.Time
	logger   *logrus.Entry

	stop     chan struct{}
	stopOnce sync.Once
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	Limit      config.Limit
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiterOption configures a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithRateLimitClock overrides the time source
func WithRateLimitClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// NewRateLimiter creates a new rate limiter and starts its cleanup routine
func NewRateLimiter(policy RatePolicy, logger *logrus.Entry, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string]*rateLimitEntry),
		policy:   policy,
		now:      time.Now,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()

	return rl
}

// Stop ends the cleanup routine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, entry := range rl.requests {
		if !now.Before(entry.resetAt) {
			delete(rl.requests, key)
		}
	}
}

type window struct {
	key   string
	limit config.Limit
}

func (rl *RateLimiter) windowsFor(client, route string) []window {
	windows := make([]window, 0, len(rl.policy.Global)+1)
	for i, limit := range rl.policy.Global {
		windows = append(windows, window{
			key:   fmt.Sprintf("global|%d|%s", i, client),
			limit: limit,
		})
	}
	for i, limit := range rl.policy.Routes[route] {
		windows = append(windows, window{
			key:   fmt.Sprintf("route|%s|%d|%s", route, i, client),
			limit: limit,
		})
	}
	return windows
}

// Allow checks every window that applies to client on route. A request is
// charged against all of them only if none is exhausted; a rejected request
// consumes nothing.
func (rl *RateLimiter) Allow(client, route string) Decision {
	windows := rl.windowsFor(client, route)
	if len(windows) == 0 {
		return Decision{Allowed: true, Remaining: -1}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	var rejected *Decision
	for _, w := range windows {
		entry, exists := rl.requests[w.key]
		if !exists || !now.Before(entry.resetAt) {
			continue
		}
		if entry.count >= w.limit.Count {
			retryAfter := entry.resetAt.Sub(now)
			if rejected == nil || retryAfter > rejected.RetryAfter {
				rejected = &Decision{
					Allowed:    false,
					Limit:      w.limit,
					Remaining:  0,
					ResetAt:    entry.resetAt,
					RetryAfter: retryAfter,
				}
			}
		}
	}
	if rejected != nil {
		return *rejected
	}

	decision := Decision{Allowed: true, Remaining: math.MaxInt}
	for _, w := range windows {
		entry, exists := rl.requests[w.key]
		if !exists || !now.Before(entry.resetAt) {
			entry = &rateLimitEntry{resetAt: now.Add(w.limit.Period)}
			rl.requests[w.key] = entry
		}
		entry.count++

		if remaining := w.limit.Count - entry.count; remaining < decision.Remaining {
			decision.Remaining = remaining
			decision.Limit = w.limit
			decision.ResetAt = entry.resetAt
		}
	}

	return decision
}

// Middleware returns the rate limiting middleware for a route
func (rl *RateLimiter) Middleware(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		decision := rl.Allow(client, route)

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			metrics.RateLimited(route)
			rl.logger.WithFields(logrus.Fields{
				"client_ip":  client,
				"route":      route,
				"limit":      decision.Limit.String(),
				"request_id": GetRequestID(c),
			}).Warn("Rate limit exceeded")

			c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit.Count))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded: " + decision.Limit.String(),
				"retry_after": retryAfter,
			})
			return
		}

		if decision.Remaining >= 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit.Count))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		}
		c.Next()
	}
}
