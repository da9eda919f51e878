// Package api provides HTTP routing and request handling for the SOAP
// WS-Security signing API.
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/eduardo/soap-wssec/internal/api/handlers"
	"github.com/eduardo/soap-wssec/internal/api/middleware"
	"github.com/eduardo/soap-wssec/internal/config"
	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
	infraredis "github.com/eduardo/soap-wssec/internal/infrastructure/redis"
)

// RouterConfig contains dependencies needed to configure the router.
type RouterConfig struct {
	// Config is the application configuration.
	Config *config.Config

	// MongoClient is the MongoDB client for health checks.
	MongoClient *mongodb.Client

	// RedisClient is the Redis client for rate limiting and health checks.
	RedisClient *infraredis.Client

	// APIKeyRepo is the repository for API key lookups.
	APIKeyRepo middleware.APIKeyRepository

	// EnvelopeRepo is the repository for envelope requests.
	EnvelopeRepo *mongodb.EnvelopeRepository

	// JobClient is the Asynq job client for enqueueing tasks.
	JobClient *infraredis.JobClient

	// BaseURL is the base URL for constructing status URLs.
	BaseURL string
}

// NewRouter creates and configures the Gin router with all middleware and
// routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetTrustedProxies(nil)

	loggingMiddleware := middleware.NewLoggingMiddleware(middleware.LoggingConfig{
		Format: cfg.Config.LogFormat,
		Level:  cfg.Config.LogLevel,
	})

	// Request ID first so every log line carries it, then logging, then
	// panic recovery.
	router.Use(
		middleware.RequestID(),
		loggingMiddleware.Logger(),
		middleware.RecoveryWithLogging(cfg.Config.LogFormat),
	)

	// Health check routes (public, no authentication).
	var mongoPinger, redisPinger handlers.Pinger
	if cfg.MongoClient != nil {
		mongoPinger = cfg.MongoClient
	}
	if cfg.RedisClient != nil {
		redisPinger = cfg.RedisClient
	}
	healthHandler := handlers.NewHealthHandler(mongoPinger, redisPinger)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	// Metrics endpoint (Prometheus format, for internal scraping).
	handlers.RegisterMetrics()
	router.GET("/metrics", handlers.MetricsHandler())

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", cfg.Config.Port)
	}

	envelopeHandler := handlers.NewEnvelopeHandler(handlers.EnvelopeHandlerConfig{
		EnvelopeRepo: cfg.EnvelopeRepo,
		JobClient:    cfg.JobClient,
		BaseURL:      baseURL,
	})
	canonicalizeHandler := handlers.NewCanonicalizeHandler()

	var statusHandler *handlers.StatusHandler
	if cfg.EnvelopeRepo != nil {
		statusHandler = handlers.NewStatusHandler(handlers.StatusHandlerConfig{
			EnvelopeRepo: cfg.EnvelopeRepo,
			BaseURL:      baseURL,
		})
	}

	// API v1 routes (protected).
	v1 := router.Group("/v1")
	{
		if cfg.APIKeyRepo != nil {
			authMiddleware := middleware.NewAuthMiddleware(cfg.APIKeyRepo)
			v1.Use(authMiddleware.Authenticate())

			if cfg.RedisClient != nil {
				rateLimitMiddleware := middleware.NewRateLimitMiddleware(
					cfg.RedisClient.GetClient(),
					cfg.Config.RateLimitDefaultRPM,
					cfg.Config.RateLimitBurst,
				)
				v1.Use(rateLimitMiddleware.RateLimit())
			}
		}

		v1.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "SOAP WS-Security signing API v1",
				"status":  "operational",
				"version": handlers.Version,
			})
		})

		v1.POST("/envelopes", envelopeHandler.Create)
		v1.POST("/canonicalize", canonicalizeHandler.Canonicalize)

		if statusHandler != nil {
			v1.GET("/envelopes/status/:requestId", statusHandler.Get)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		handlers.NotFound(c, "The requested resource was not found")
	})
	router.NoMethod(func(c *gin.Context) {
		handlers.MethodNotAllowed(c, "The HTTP method is not allowed for this resource")
	})

	return router
}

// NewRouterSimple creates a minimal router for testing or simple
// deployments. It does not require MongoDB or Redis connections.
func NewRouterSimple(cfg *config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	loggingMiddleware := middleware.NewLoggingMiddleware(middleware.LoggingConfig{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
	})

	router.Use(
		middleware.RequestID(),
		loggingMiddleware.Logger(),
		middleware.RecoveryWithLogging(cfg.LogFormat),
	)

	router.GET("/health", handlers.SimpleHealth)
	router.POST("/v1/canonicalize", handlers.NewCanonicalizeHandler().Canonicalize)
	router.POST("/v1/envelopes", handlers.NewEnvelopeHandler(handlers.EnvelopeHandlerConfig{}).Create)

	return router
}
