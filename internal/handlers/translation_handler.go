package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/translation-gateway/internal/cache"
	"github.com/tesseract-hub/translation-gateway/internal/clients"
	"github.com/tesseract-hub/translation-gateway/internal/config"
	"github.com/tesseract-hub/translation-gateway/internal/detect"
	"github.com/tesseract-hub/translation-gateway/internal/extract"
	"github.com/tesseract-hub/translation-gateway/internal/middleware"
	"github.com/tesseract-hub/translation-gateway/internal/models"
)

// TranslationHandler handles translation API requests
type TranslationHandler struct {
	registry  *clients.Registry
	cache     cache.ResultCache
	catalog   *cache.LanguageCatalog
	detector  detect.Detector
	extractor extract.Extractor
	config    *config.TranslationConfig
	logger    *logrus.Entry
}

// NewTranslationHandler creates a new translation handler
func NewTranslationHandler(
	registry *clients.Registry,
	resultCache cache.ResultCache,
	catalog *cache.LanguageCatalog,
	detector detect.Detector,
	extractor extract.Extractor,
	cfg *config.TranslationConfig,
	logger *logrus.Entry,
) *TranslationHandler {
	return &TranslationHandler{
		registry:  registry,
		cache:     resultCache,
		catalog:   catalog,
		detector:  detector,
		extractor: extractor,
		config:    cfg,
		logger:    logger,
	}
}

func (h *TranslationHandler) translatorOrDefault(name string) string {
	if name == "" {
		return h.config.DefaultProvider
	}
	return name
}

func (h *TranslationHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

func abortWithError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: message})
}

// GetLanguages returns the supported languages of a translator
// GET /getLang?translator=google
func (h *TranslationHandler) GetLanguages(c *gin.Context) {
	name, err := clients.ParseProviderName(h.translatorOrDefault(c.Query("translator")))
	if err != nil {
		abortWithError(c, models.ErrMsgUnsupportedTranslator)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	languages, err := h.catalog.Get(ctx, name)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"translator": name,
			"error":      err.Error(),
		}).Error("Failed to get languages")
		abortWithError(c, models.ErrPrefixLanguages+err.Error())
		return
	}

	c.JSON(http.StatusOK, languages)
}

// Translate handles single text translation requests
// POST /translate
func (h *TranslationHandler) Translate(c *gin.Context) {
	var req models.TranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, models.ErrMsgInvalidBody)
		return
	}

	if req.Text == "" || req.TargetLang == "" {
		abortWithError(c, models.ErrMsgMissingTextOrTarget)
		return
	}

	translator, err := clients.ParseProviderName(h.translatorOrDefault(req.Translator))
	if err != nil {
		abortWithError(c, models.ErrMsgUnsupportedTranslator)
		return
	}

	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = clients.AutoLanguage
	}

	cacheKey := cache.BuildCacheKey(string(translator), sourceLang, req.TargetLang, req.Text)
	if cached, ok := h.cache.Lookup(cacheKey); ok {
		h.logger.WithFields(logrus.Fields{
			"translator":  translator,
			"source_lang": sourceLang,
			"target_lang": req.TargetLang,
		}).Debug("Cache hit")

		c.JSON(http.StatusOK, models.TranslationResponse{
			TranslatedText: cached,
			Source:         models.SourceCache,
		})
		return
	}

	provider, err := h.registry.Get(string(translator))
	if err != nil {
		abortWithError(c, models.ErrMsgUnsupportedTranslator)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := provider.Translate(ctx, req.Text, sourceLang, req.TargetLang)
	if err != nil {
		abortWithError(c, models.ErrPrefixTranslation+err.Error())
		return
	}

	h.cache.Store(cacheKey, result.TranslatedText)

	c.JSON(http.StatusOK, models.TranslationResponse{
		TranslatedText: result.TranslatedText,
		Source:         models.SourceAPI,
	})
}

// TranslateURL translates the visible text of a web page. Results are not cached.
// POST /translate_url
func (h *TranslationHandler) TranslateURL(c *gin.Context) {
	var req models.URLTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, models.ErrMsgInvalidBody)
		return
	}

	if req.URL == "" || req.TargetLang == "" {
		abortWithError(c, models.ErrMsgMissingURLOrTarget)
		return
	}

	provider, err := h.registry.Get(h.translatorOrDefault(req.Translator))
	if err != nil {
		abortWithError(c, models.ErrMsgUnsupportedTranslator)
		return
	}

	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = clients.AutoLanguage
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	text, err := h.extractor.ExtractText(ctx, req.URL)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"url":        req.URL,
			"error":      err.Error(),
			"request_id": middleware.GetRequestID(c),
		}).Warn("Failed to extract page text")
		abortWithError(c, models.ErrPrefixURLTranslation+err.Error())
		return
	}

	result, err := provider.Translate(ctx, text, sourceLang, req.TargetLang)
	if err != nil {
		abortWithError(c, models.ErrPrefixURLTranslation+err.Error())
		return
	}

	c.JSON(http.StatusOK, models.URLTranslationResponse{
		TranslatedText: result.TranslatedText,
	})
}

// DetectLanguage handles language detection requests
// POST /detect_language
func (h *TranslationHandler) DetectLanguage(c *gin.Context) {
	var req models.DetectLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, models.ErrMsgInvalidBody)
		return
	}

	if req.Text == "" {
		abortWithError(c, models.ErrMsgMissingText)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	language, err := h.detector.Detect(ctx, req.Text)
	if err != nil {
		if !errors.Is(err, detect.ErrUndetectable) {
			h.logger.WithError(err).Error("Language detection failed")
		}
		abortWithError(c, models.ErrPrefixDetection+err.Error())
		return
	}

	c.JSON(http.StatusOK, models.DetectLanguageResponse{
		DetectedLanguage: language,
	})
}
