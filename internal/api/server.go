package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/dian-api/internal/api/handlers"
	"github.com/nexconsult/dian-api/internal/api/middleware"
	"github.com/nexconsult/dian-api/internal/config"
	"github.com/nexconsult/dian-api/internal/models"
	"github.com/nexconsult/dian-api/internal/services"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// UsageHint is returned for unknown routes
const UsageHint = `POST /search with JSON body { "cufe": "..." }`

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// StartBackground starts the rate limiter cleanup until ctx ends
func (s *Server) StartBackground(ctx context.Context) {
	s.rateLimiter.StartCleanup(ctx)
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()
	s.Router.HandleMethodNotAllowed = true

	// Global middleware
	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	metricsHandler := handlers.NewMetricsHandler(s.services.Metrics.Handler(), s.services.SearchService, s.services.CacheService, s.logger)

	// Probes and metrics are not rate limited
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)
	s.Router.GET("/metrics", metricsHandler.GetMetrics)

	// Swagger documentation
	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)
	limited := s.Router.Group("/", s.rateLimiter.Middleware())

	searchHandler := handlers.NewSearchHandler(s.services.SearchService, s.config.Server.MaxBatchSize, s.logger)

	// Route of the original single-endpoint server
	limited.POST("/search", searchHandler.Search)

	// API v1 routes
	v1 := limited.Group("/api/v1")
	{
		search := v1.Group("/search")
		{
			search.POST("", searchHandler.Search)
			search.POST("/batch", searchHandler.SearchBatch)
			search.GET("/:cufe", searchHandler.GetSearch)
		}

		cache := v1.Group("/cache")
		{
			cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.logger)
			cache.GET("/stats", cacheHandler.GetStats)
			cache.DELETE("/clear", cacheHandler.Clear)
			cache.DELETE("/:cufe", cacheHandler.Delete)
		}

		browser := v1.Group("/browser")
		{
			browserHandler := handlers.NewBrowserHandler(s.services.BrowserService, s.logger)
			browser.GET("/stats", browserHandler.GetStats)
			browser.GET("/health", browserHandler.GetHealth)
		}

		v1.GET("/stats", metricsHandler.GetStats)
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     UsageHint,
			Code:      "NOT_FOUND",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})

	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{
			Error:     "Method " + c.Request.Method + " is not allowed for this resource",
			Code:      "METHOD_NOT_ALLOWED",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	})
}
