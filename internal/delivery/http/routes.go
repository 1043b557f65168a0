package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/breadlens/backend/config"
	"github.com/breadlens/backend/internal/infrastructure/logger"
	"github.com/breadlens/backend/internal/infrastructure/metrics"
)

const scrapeTimeout = 5 * time.Minute

// RouterDeps are the optional collaborators of the router
type RouterDeps struct {
	Log      logger.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // serves /metrics when set
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, deps RouterDeps) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(MetricsMiddleware(deps.Metrics))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		analyses := v1.Group("/analyses")
		{
			analyses.POST("", handler.CreateAnalysis)
			analyses.GET("", handler.ListAnalyses)
			analyses.GET("/latest", handler.LatestAnalysis)
			analyses.GET("/:id", handler.GetAnalysis)
			analyses.GET("/:id/export", handler.ExportAnalysis)
		}

		v1.POST("/scrapes", requestTimeout(scrapeTimeout), handler.TriggerScrape)
	}

	return router
}
