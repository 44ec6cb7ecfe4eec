package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionPool is the browser session pool as seen by the HTTP layer. *services.BrowserService implements it.
type SessionPool interface {
	GetStats() map[string]interface{}
	Health() map[string]interface{}
}

// BrowserHandler handles browser session pool requests
type BrowserHandler struct {
	browserService SessionPool
	logger         *logrus.Logger
}

// NewBrowserHandler creates a new browser handler
func NewBrowserHandler(browserService SessionPool, logger *logrus.Logger) *BrowserHandler {
	return &BrowserHandler{
		browserService: browserService,
		logger:         logger,
	}
}

// GetStats handles browser pool statistics request
// @Summary Get browser session statistics
// @Description Get the session bound, sessions in use and waiters
// @Tags Browser
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /browser/stats [get]
func (h *BrowserHandler) GetStats(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting browser session statistics")

	c.JSON(http.StatusOK, map[string]interface{}{
		"stats":     h.browserService.GetStats(),
		"health":    h.browserService.Health(),
		"timestamp": time.Now(),
	})
}

// GetHealth handles browser pool health check request
// @Summary Get browser session pool health
// @Description Get the health status of the browser session pool
// @Tags Browser
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /browser/health [get]
func (h *BrowserHandler) GetHealth(c *gin.Context) {
	health := h.browserService.Health()

	httpStatus := http.StatusOK
	if health["status"] == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, map[string]interface{}{
		"health":    health,
		"stats":     h.browserService.GetStats(),
		"timestamp": time.Now(),
	})
}
