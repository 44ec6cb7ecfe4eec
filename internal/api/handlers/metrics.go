package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/dian-api/internal/services"
	"github.com/sirupsen/logrus"
)

// MetricsHandler serves Prometheus metrics and a JSON summary
type MetricsHandler struct {
	exporter      http.Handler
	searchService services.SearchServiceInterface
	cacheService  services.CacheServiceInterface
	logger        *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler around a Prometheus exporter
func NewMetricsHandler(exporter http.Handler, searchService services.SearchServiceInterface, cacheService services.CacheServiceInterface, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		exporter:      exporter,
		searchService: searchService,
		cacheService:  cacheService,
		logger:        logger,
	}
}

// GetMetrics serves the Prometheus exposition format
// @Summary Prometheus metrics
// @Tags Metrics
// @Produce plain
// @Success 200 {string} string
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.exporter.ServeHTTP(c.Writer, c.Request)
}

// GetStats returns search, cache and runtime statistics as JSON
// @Summary Get service statistics
// @Description Search counters, browser session pool, cache and runtime figures
// @Tags Metrics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /stats [get]
func (h *MetricsHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cacheStats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).WithField("request_id", c.GetString("request_id")).Warn("Failed to read cache statistics")
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"search": h.searchService.Stats(),
		"cache":  cacheStats,
		"system": map[string]interface{}{
			"memory_mb":  float64(m.Alloc) / 1024 / 1024,
			"goroutines": runtime.NumGoroutine(),
		},
		"timestamp": time.Now(),
	})
}
