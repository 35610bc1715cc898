package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("RATE_LIMIT_TRANSLATE", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("DEFAULT_TRANSLATOR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "google", cfg.Translation.DefaultProvider)
	assert.Equal(t, time.Hour, cfg.Translation.CacheTTL)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, Limit{Count: 200, Period: 24 * time.Hour}, cfg.RateLimit.Daily)
	assert.Equal(t, Limit{Count: 50, Period: time.Hour}, cfg.RateLimit.Hourly)
	assert.Equal(t, Limit{Count: 10, Period: time.Minute}, cfg.RateLimit.GetLang)
	assert.Equal(t, Limit{Count: 100, Period: time.Minute}, cfg.RateLimit.Translate)
	assert.Equal(t, Limit{Count: 20, Period: time.Minute}, cfg.RateLimit.TranslateURL)
	assert.Equal(t, Limit{Count: 50, Period: time.Minute}, cfg.RateLimit.DetectLanguage)

	assert.Equal(t, 5, cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("DEFAULT_TRANSLATOR", "microsoft")
	t.Setenv("RATE_LIMIT_TRANSLATE", "5/second")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DETECT_LANGUAGES", "en,fr,de")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Translation.CacheTTL)
	assert.Equal(t, "microsoft", cfg.Translation.DefaultProvider)
	assert.Equal(t, Limit{Count: 5, Period: time.Second}, cfg.RateLimit.Translate)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"en", "fr", "de"}, cfg.Detect.Languages)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveBreakerSettings(t *testing.T) {
	t.Setenv("SERVER_PORT", "")

	for _, value := range []string{"-1", "0"} {
		t.Run("max failures "+value, func(t *testing.T) {
			t.Setenv("BREAKER_MAX_FAILURES", value)
			_, err := Load()
			assert.ErrorContains(t, err, "BREAKER_MAX_FAILURES")
		})
	}

	t.Run("open timeout", func(t *testing.T) {
		t.Setenv("BREAKER_MAX_FAILURES", "")
		t.Setenv("BREAKER_OPEN_TIMEOUT", "-5s")
		_, err := Load()
		assert.ErrorContains(t, err, "BREAKER_OPEN_TIMEOUT")
	})
}

func TestLoadIgnoresMalformedLimit(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("RATE_LIMIT_GET_LANG", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Limit{Count: 10, Period: time.Minute}, cfg.RateLimit.GetLang)
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    Limit
		wantErr bool
	}{
		{raw: "10/minute", want: Limit{Count: 10, Period: time.Minute}},
		{raw: "10 per minute", want: Limit{Count: 10, Period: time.Minute}},
		{raw: "50/hour", want: Limit{Count: 50, Period: time.Hour}},
		{raw: "200 per days", want: Limit{Count: 200, Period: 24 * time.Hour}},
		{raw: " 3/Seconds ", want: Limit{Count: 3, Period: time.Second}},
		{raw: "10", wantErr: true},
		{raw: "0/minute", wantErr: true},
		{raw: "x/minute", wantErr: true},
		{raw: "10/fortnight", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLimit(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimitString(t *testing.T) {
	assert.Equal(t, "10 per 1 minute", Limit{Count: 10, Period: time.Minute}.String())
	assert.Equal(t, "200 per 1 day", Limit{Count: 200, Period: 24 * time.Hour}.String())
	assert.Equal(t, "3 per 5m0s", Limit{Count: 3, Period: 5 * time.Minute}.String())
}
