package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/dian-api/internal/logger"
	"github.com/nexconsult/dian-api/internal/models"
	"github.com/nexconsult/dian-api/internal/services"
	"github.com/nexconsult/dian-api/internal/utils"
	"github.com/sirupsen/logrus"
)

// MissingCUFEMessage is returned when a request body carries no identifier
const MissingCUFEMessage = `Missing "cufe" in body`

// SearchHandler handles document search requests
type SearchHandler struct {
	searchService services.SearchServiceInterface
	maxBatchSize  int
	logger        *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService services.SearchServiceInterface, maxBatchSize int, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		maxBatchSize:  maxBatchSize,
		logger:        logger,
	}
}

// Search handles a search request with a JSON body
// @Summary Search a document by CUFE
// @Description Runs the DIAN catalogue search for one document and returns its event table. Remote rejections are reported with ok=false and a 200 status.
// @Tags Search
// @Accept json
// @Produce json
// @Param request body models.SearchRequest true "Document identifier (cufe, CUFE, DocumentKey or identifier)"
// @Success 200 {object} models.SearchOutcome
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	var request models.SearchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.badRequest(c, "Invalid JSON body", "INVALID_REQUEST", err)
		return
	}

	cufe := request.Key()
	if cufe == "" {
		h.badRequest(c, MissingCUFEMessage, "MISSING_CUFE", nil)
		return
	}

	h.search(c, cufe)
}

// GetSearch handles a search request with the identifier in the path
// @Summary Search a document by CUFE
// @Description Same as POST /search with the identifier taken from the path
// @Tags Search
// @Produce json
// @Param cufe path string true "Document identifier"
// @Success 200 {object} models.SearchOutcome
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /search/{cufe} [get]
func (h *SearchHandler) GetSearch(c *gin.Context) {
	cufe := utils.CleanIdentifier(c.Param("cufe"))
	if cufe == "" {
		h.badRequest(c, "The document identifier must not be blank", "MISSING_CUFE", nil)
		return
	}

	h.search(c, cufe)
}

func (h *SearchHandler) search(c *gin.Context, cufe string) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx, h.logger, "http").WithField("cufe", utils.MaskIdentifier(cufe))
	log.Info("Processing document search")

	outcome, err := h.searchService.TrySearch(ctx, cufe)
	if err != nil {
		log.WithError(err).Warn("Search not started")
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:     "No browser session became available, try again later",
			Code:      "NO_SESSION",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// SearchBatch handles batch document searches
// @Summary Search several documents
// @Description Runs the searches concurrently, bounded by the browser session limit
// @Tags Search
// @Accept json
// @Produce json
// @Param request body models.BatchSearchRequest true "Document identifiers"
// @Success 200 {object} models.BatchSearchResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /search/batch [post]
func (h *SearchHandler) SearchBatch(c *gin.Context) {
	var request models.BatchSearchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.badRequest(c, "Invalid request body: expected { \"cufes\": [...] } with at least one entry", "INVALID_REQUEST", err)
		return
	}

	if h.maxBatchSize > 0 && len(request.CUFEs) > h.maxBatchSize {
		h.badRequest(c, fmt.Sprintf("A batch holds at most %d identifiers", h.maxBatchSize), "BATCH_TOO_LARGE", nil)
		return
	}

	valid, invalid := utils.CleanIdentifiers(request.CUFEs)
	if len(valid) == 0 {
		h.badRequest(c, "No valid identifiers provided", "NO_VALID_CUFES", nil)
		return
	}

	log := logger.FromContext(c.Request.Context(), h.logger, "http")
	log.WithFields(logrus.Fields{
		"total":   len(request.CUFEs),
		"valid":   len(valid),
		"invalid": len(invalid),
	}).Info("Processing batch search")

	response := h.searchService.SearchBatch(c.Request.Context(), valid)

	log.WithFields(logrus.Fields{
		"total":    response.Total,
		"success":  response.Success,
		"errors":   response.Errors,
		"duration": response.DurationMs,
	}).Info("Batch search completed")

	c.JSON(http.StatusOK, response)
}

func (h *SearchHandler) badRequest(c *gin.Context, message, code string, cause error) {
	entry := h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
		"code":       code,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Warn("Rejected search request")

	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
