package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/translation-gateway/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newTestLimiter(t *testing.T, policy RatePolicy) (*RateLimiter, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(policy, testLogger(), WithRateLimitClock(clock.Now))
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestNewRatePolicyDefaults(t *testing.T) {
	policy := NewRatePolicy(config.DefaultRateLimitConfig())

	assert.Equal(t, []config.Limit{
		{Count: 200, Period: 24 * time.Hour},
		{Count: 50, Period: time.Hour},
	}, policy.Global)

	tests := []struct {
		route string
		want  config.Limit
	}{
		{route: RouteGetLang, want: config.Limit{Count: 10, Period: time.Minute}},
		{route: RouteTranslate, want: config.Limit{Count: 100, Period: time.Minute}},
		{route: RouteTranslateURL, want: config.Limit{Count: 20, Period: time.Minute}},
		{route: RouteDetectLanguage, want: config.Limit{Count: 50, Period: time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			assert.Equal(t, []config.Limit{tt.want}, policy.Routes[tt.route])
		})
	}
	assert.Len(t, policy.Routes, len(tests))

	assert.Equal(t, "/getLang", RouteGetLang)
	assert.Equal(t, "/translate", RouteTranslate)
	assert.Equal(t, "/translate_url", RouteTranslateURL)
	assert.Equal(t, "/detect_language", RouteDetectLanguage)
}

func TestRateLimiterRouteLimit(t *testing.T) {
	rl, _ := newTestLimiter(t, RatePolicy{
		Routes: map[string][]config.Limit{"/getLang": {{Count: 3, Period: time.Minute}}},
	})

	for i := 0; i < 3; i++ {
		d := rl.Allow("10.0.0.1", "/getLang")
		require.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d := rl.Allow("10.0.0.1", "/getLang")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Equal(t, "3 per 1 minute", d.Limit.String())

	// other clients have their own budget
	assert.True(t, rl.Allow("10.0.0.2", "/getLang").Allowed)
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl, clock := newTestLimiter(t, RatePolicy{
		Routes: map[string][]config.Limit{"/getLang": {{Count: 1, Period: time.Minute}}},
	})

	require.True(t, rl.Allow("10.0.0.1", "/getLang").Allowed)
	require.False(t, rl.Allow("10.0.0.1", "/getLang").Allowed)

	clock.now = clock.now.Add(30 * time.Second)
	d := rl.Allow("10.0.0.1", "/getLang")
	require.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	clock.now = clock.now.Add(30 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1", "/getLang").Allowed)
}

func TestRateLimiterGlobalLimitSharedAcrossRoutes(t *testing.T) {
	rl, _ := newTestLimiter(t, RatePolicy{
		Global: []config.Limit{{Count: 3, Period: time.Hour}},
		Routes: map[string][]config.Limit{
			"/translate":       {{Count: 100, Period: time.Minute}},
			"/detect_language": {{Count: 100, Period: time.Minute}},
		},
	})

	assert.True(t, rl.Allow("10.0.0.1", "/translate").Allowed)
	assert.True(t, rl.Allow("10.0.0.1", "/detect_language").Allowed)
	assert.True(t, rl.Allow("10.0.0.1", "/translate").Allowed)

	d := rl.Allow("10.0.0.1", "/detect_language")
	assert.False(t, d.Allowed)
	assert.Equal(t, "3 per 1 hour", d.Limit.String())
}

func TestRateLimiterRejectionConsumesNothing(t *testing.T) {
	rl, clock := newTestLimiter(t, RatePolicy{
		Global: []config.Limit{{Count: 5, Period: time.Hour}},
		Routes: map[string][]config.Limit{
			"/getLang":   {{Count: 1, Period: time.Minute}},
			"/translate": {{Count: 100, Period: time.Minute}},
		},
	})

	require.True(t, rl.Allow("10.0.0.1", "/getLang").Allowed)
	for i := 0; i < 10; i++ {
		require.False(t, rl.Allow("10.0.0.1", "/getLang").Allowed)
	}

	// only the single accepted request counted against the hourly budget
	for i := 0; i < 4; i++ {
		assert.True(t, rl.Allow("10.0.0.1", "/translate").Allowed, "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1", "/translate").Allowed)

	clock.now = clock.now.Add(time.Hour)
	assert.True(t, rl.Allow("10.0.0.1", "/translate").Allowed)
}

func TestRateLimiterRetryAfterUsesLongestWindow(t *testing.T) {
	rl, _ := newTestLimiter(t, RatePolicy{
		Global: []config.Limit{{Count: 1, Period: time.Hour}},
		Routes: map[string][]config.Limit{"/getLang": {{Count: 1, Period: time.Minute}}},
	})

	require.True(t, rl.Allow("10.0.0.1", "/getLang").Allowed)
	d := rl.Allow("10.0.0.1", "/getLang")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Hour, d.RetryAfter)
}

func TestRateLimiterUnknownRouteWithoutGlobal(t *testing.T) {
	rl, _ := newTestLimiter(t, RatePolicy{})

	d := rl.Allow("10.0.0.1", "/health")
	assert.True(t, d.Allowed)
	assert.Equal(t, -1, d.Remaining)
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, RatePolicy{
		Routes: map[string][]config.Limit{"/getLang": {{Count: 2, Period: time.Minute}}},
	})

	router := gin.New()
	router.GET("/getLang", rl.Middleware("/getLang"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"en": "English"})
	})

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/getLang", nil)
		req.RemoteAddr = "192.0.2.10:4321"
		router.ServeHTTP(w, req)
		return w
	}

	w := send()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send().Code)

	w = send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded: 2 per 1 minute", body["error"])
	assert.Equal(t, float64(60), body["retry_after"])
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36)
}
