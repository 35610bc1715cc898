package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
)

// Health returns service health status
// GET /health
func (h *TranslationHandler) Health(c *gin.Context) {
	statuses := h.registry.Status()

	available := 0
	checks := make(map[string]string, len(statuses))
	for _, s := range statuses {
		switch {
		case !s.Configured:
			checks[string(s.Provider)] = "not configured"
		case s.Breaker == gobreaker.StateOpen.String():
			checks[string(s.Provider)] = "unavailable: circuit open"
		default:
			checks[string(s.Provider)] = "available"
			available++
		}
	}

	status := "healthy"
	if available == 0 {
		status = "unhealthy"
	} else if available < len(statuses) {
		status = "degraded"
	}

	body := gin.H{
		"status":            status,
		"checks":            checks,
		"providers":         statuses,
		"language_catalogs": h.catalog.Size(),
	}
	if sized, ok := h.cache.(interface{ Len() int }); ok {
		body["cached_translations"] = sized.Len()
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, body)
}

// Livez returns liveness status
// GET /livez
func (h *TranslationHandler) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readyz returns readiness status
// GET /readyz
func (h *TranslationHandler) Readyz(c *gin.Context) {
	for _, s := range h.registry.Status() {
		if s.Configured && s.Breaker != gobreaker.StateOpen.String() {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
	}

	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status": "not ready",
		"error":  "no usable translation providers",
	})
}
