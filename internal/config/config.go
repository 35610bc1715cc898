package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	App         AppConfig
	Translation TranslationConfig
	Providers   ProvidersConfig
	RateLimit   RateLimitConfig
	Extract     ExtractConfig
	Detect      DetectConfig
	Breaker     BreakerConfig
	Tracing     TracingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TrustedProxies []string
	CORSOrigins    []string
}

type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

type TranslationConfig struct {
	// Result cache settings
	CacheTTL time.Duration

	DefaultProvider string

	// Upper bound on a single upstream call
	RequestTimeout time.Duration
}

type ProvidersConfig struct {
	// Google Cloud Translation v2
	GoogleAPIKey  string
	GoogleBaseURL string

	// Microsoft Translator v3
	MicrosoftAPIKey  string
	MicrosoftRegion  string
	MicrosoftBaseURL string

	// PONS dictionary API
	PonsSecret  string
	PonsBaseURL string
}

// Limit is a request budget over a period, e.g. 10 per minute
type Limit struct {
	Count  int
	Period time.Duration
}

func (l Limit) String() string {
	return fmt.Sprintf("%d per %s", l.Count, periodName(l.Period))
}

type RateLimitConfig struct {
	Enabled bool

	// Applied to every route, shared across routes per client
	Daily  Limit
	Hourly Limit

	// Per-route limits
	GetLang        Limit
	Translate      Limit
	TranslateURL   Limit
	DetectLanguage Limit
}

type ExtractConfig struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
}

type DetectConfig struct {
	// ISO 639-1 codes; empty means all languages
	Languages []string
	Preload   bool
}

type BreakerConfig struct {
	Enabled     bool
	MaxFailures int
	OpenTimeout time.Duration
}

type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// DefaultRateLimitConfig returns the built-in quotas
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        true,
		Daily:          Limit{Count: 200, Period: 24 * time.Hour},
		Hourly:         Limit{Count: 50, Period: time.Hour},
		GetLang:        Limit{Count: 10, Period: time.Minute},
		Translate:      Limit{Count: 100, Period: time.Minute},
		TranslateURL:   Limit{Count: 20, Period: time.Minute},
		DetectLanguage: Limit{Count: 50, Period: time.Minute},
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	rateDefaults := DefaultRateLimitConfig()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
			CORSOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		App: AppConfig{
			Name:        getEnv("APP_NAME", "translation-gateway"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Translation: TranslationConfig{
			CacheTTL:        getEnvAsDuration("CACHE_TTL", time.Hour),
			DefaultProvider: getEnv("DEFAULT_TRANSLATOR", "google"),
			RequestTimeout:  getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
		Providers: ProvidersConfig{
			GoogleAPIKey:     getEnv("GOOGLE_TRANSLATE_API_KEY", ""),
			GoogleBaseURL:    getEnv("GOOGLE_TRANSLATE_URL", ""),
			MicrosoftAPIKey:  getEnv("MICROSOFT_TRANSLATOR_API_KEY", ""),
			MicrosoftRegion:  getEnv("MICROSOFT_TRANSLATOR_REGION", ""),
			MicrosoftBaseURL: getEnv("MICROSOFT_TRANSLATOR_URL", ""),
			PonsSecret:       getEnv("PONS_API_SECRET", ""),
			PonsBaseURL:      getEnv("PONS_API_URL", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Daily:          getEnvAsLimit("RATE_LIMIT_DAILY", rateDefaults.Daily),
			Hourly:         getEnvAsLimit("RATE_LIMIT_HOURLY", rateDefaults.Hourly),
			GetLang:        getEnvAsLimit("RATE_LIMIT_GET_LANG", rateDefaults.GetLang),
			Translate:      getEnvAsLimit("RATE_LIMIT_TRANSLATE", rateDefaults.Translate),
			TranslateURL:   getEnvAsLimit("RATE_LIMIT_TRANSLATE_URL", rateDefaults.TranslateURL),
			DetectLanguage: getEnvAsLimit("RATE_LIMIT_DETECT_LANGUAGE", rateDefaults.DetectLanguage),
		},
		Extract: ExtractConfig{
			Timeout:       getEnvAsDuration("EXTRACT_TIMEOUT", 15*time.Second),
			BodyByteLimit: int64(getEnvAsInt("EXTRACT_BODY_LIMIT", 2*1024*1024)),
			UserAgent:     getEnv("EXTRACT_USER_AGENT", ""),
		},
		Detect: DetectConfig{
			Languages: getEnvAsList("DETECT_LANGUAGES", nil),
			Preload:   getEnvAsBool("DETECT_PRELOAD", false),
		},
		Breaker: BreakerConfig{
			Enabled:     getEnvAsBool("BREAKER_ENABLED", true),
			MaxFailures: getEnvAsInt("BREAKER_MAX_FAILURES", 5),
			OpenTimeout: getEnvAsDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: getEnvAsFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid SERVER_PORT %d", cfg.Server.Port)
	}

	if cfg.Breaker.MaxFailures <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_MAX_FAILURES %d: must be positive", cfg.Breaker.MaxFailures)
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_OPEN_TIMEOUT %s: must be positive", cfg.Breaker.OpenTimeout)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func getEnvAsLimit(key string, defaultValue Limit) Limit {
	if value := os.Getenv(key); value != "" {
		if limit, err := ParseLimit(value); err == nil {
			return limit
		}
	}
	return defaultValue
}

// ParseLimit parses "10/minute", "10 per minute" or "50/hour"
func ParseLimit(raw string) (Limit, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))

	var countPart, periodPart string
	if before, after, ok := strings.Cut(raw, "/"); ok {
		countPart, periodPart = before, after
	} else if before, after, ok := strings.Cut(raw, " per "); ok {
		countPart, periodPart = before, after
	} else {
		return Limit{}, fmt.Errorf("invalid limit %q", raw)
	}

	count, err := strconv.Atoi(strings.TrimSpace(countPart))
	if err != nil || count <= 0 {
		return Limit{}, fmt.Errorf("invalid limit count in %q", raw)
	}

	var period time.Duration
	switch strings.TrimSuffix(strings.TrimSpace(periodPart), "s") {
	case "second":
		period = time.Second
	case "minute":
		period = time.Minute
	case "hour":
		period = time.Hour
	case "day":
		period = 24 * time.Hour
	default:
		return Limit{}, fmt.Errorf("invalid limit period in %q", raw)
	}

	return Limit{Count: count, Period: period}, nil
}

func periodName(d time.Duration) string {
	switch d {
	case time.Second:
		return "1 second"
	case time.Minute:
		return "1 minute"
	case time.Hour:
		return "1 hour"
	case 24 * time.Hour:
		return "1 day"
	default:
		return d.String()
	}
}
