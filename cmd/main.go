package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/translation-gateway/internal/cache"
	"github.com/tesseract-hub/translation-gateway/internal/clients"
	"github.com/tesseract-hub/translation-gateway/internal/config"
	"github.com/tesseract-hub/translation-gateway/internal/detect"
	"github.com/tesseract-hub/translation-gateway/internal/extract"
	"github.com/tesseract-hub/translation-gateway/internal/handlers"
	"github.com/tesseract-hub/translation-gateway/internal/metrics"
	"github.com/tesseract-hub/translation-gateway/internal/middleware"
	"github.com/tesseract-hub/translation-gateway/internal/tracing"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logger.WithField("service", "translation-gateway")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set Gin mode
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize OpenTelemetry tracing (optional)
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Endpoint != "" {
		tp, err := tracing.InitTracer(context.Background(), tracing.Config{
			ServiceName: cfg.App.Name,
			Environment: cfg.App.Environment,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to initialize tracer")
		} else {
			tracerProvider = tp
			log.WithField("endpoint", cfg.Tracing.Endpoint).Info("Tracing enabled")
		}
	}

	// Language detection backs /detect_language and PONS auto-source
	detector, err := detect.NewLinguaDetector(cfg.Detect.Languages, cfg.Detect.Preload)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize language detector")
	}

	// Initialize translation providers
	httpClient := clients.NewHTTPClient(cfg.Translation.RequestTimeout)
	providerLog := log.WithField("component", "provider")

	factories := map[clients.ProviderName]clients.ProviderFactory{
		clients.ProviderGoogle: func() clients.TranslationProvider {
			return clients.NewGoogleTranslateClient(cfg.Providers.GoogleAPIKey, cfg.Providers.GoogleBaseURL, httpClient, providerLog)
		},
		clients.ProviderMicrosoft: func() clients.TranslationProvider {
			return clients.NewMicrosoftTranslatorClient(cfg.Providers.MicrosoftAPIKey, cfg.Providers.MicrosoftRegion, cfg.Providers.MicrosoftBaseURL, httpClient, providerLog)
		},
		clients.ProviderPons: func() clients.TranslationProvider {
			return clients.NewPonsClient(cfg.Providers.PonsSecret, cfg.Providers.PonsBaseURL, httpClient, detector, providerLog)
		},
	}

	if cfg.Providers.GoogleAPIKey == "" {
		log.Warn("Google Translate API key not configured - google translator will fail")
	}
	if cfg.Providers.MicrosoftAPIKey == "" {
		log.Warn("Microsoft Translator API key not configured - microsoft translator will fail")
	}
	if cfg.Providers.PonsSecret == "" {
		log.Warn("PONS API secret not configured - pons translator will fail")
	}

	registry := clients.NewRegistry(factories, clients.BreakerConfig{
		Enabled:     cfg.Breaker.Enabled,
		MaxFailures: uint32(cfg.Breaker.MaxFailures),
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}, log)

	// Caches
	resultCache := cache.NewMemoryResultCache(cfg.Translation.CacheTTL)
	catalog := cache.NewLanguageCatalog(registry.LoadLanguages, cache.WithLoadTimeout(cfg.Translation.RequestTimeout))

	extractor := extract.NewHTTPExtractor(extract.Options{
		Timeout:       cfg.Extract.Timeout,
		BodyByteLimit: cfg.Extract.BodyByteLimit,
		UserAgent:     cfg.Extract.UserAgent,
	})

	handler := handlers.NewTranslationHandler(
		registry,
		resultCache,
		catalog,
		detector,
		extractor,
		&cfg.Translation,
		log,
	)

	// Setup Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.WithError(err).Fatal("Invalid trusted proxies")
	}
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log.WithField("component", "http")))
	router.Use(metrics.Middleware())
	if tracerProvider != nil {
		router.Use(tracing.GinMiddleware(cfg.App.Name))
	}

	// Health endpoints
	router.GET("/health", handler.Health)
	router.GET("/livez", handler.Livez)
	router.GET("/readyz", handler.Readyz)

	// Metrics endpoint
	router.GET("/metrics", metrics.Handler())

	// Initialize rate limiter
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(middleware.NewRatePolicy(cfg.RateLimit), log.WithField("component", "rate_limiter"))
		defer rateLimiter.Stop()
	} else {
		log.Warn("Rate limiting disabled")
	}
	limit := func(route string) gin.HandlerFunc {
		if rateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return rateLimiter.Middleware(route)
	}

	// API routes
	router.GET(middleware.RouteGetLang, limit(middleware.RouteGetLang), handler.GetLanguages)
	router.POST(middleware.RouteTranslate, limit(middleware.RouteTranslate), handler.Translate)
	router.POST(middleware.RouteTranslateURL, limit(middleware.RouteTranslateURL), handler.TranslateURL)
	router.POST(middleware.RouteDetectLanguage, limit(middleware.RouteDetectLanguage), handler.DetectLanguage)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.WithField("addr", addr).Info("Starting translation gateway")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Shutdown tracer
	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Failed to shutdown tracer")
		}
	}

	log.Info("Server exited")
}
