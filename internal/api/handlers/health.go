package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is the API version reported by info and health endpoints.
const Version = "1.2.0"

// Pinger is anything that can report connectivity, such as the MongoDB
// and Redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health check endpoints.
type HealthHandler struct {
	mongo Pinger
	redis Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(mongo, redis Pinger) *HealthHandler {
	return &HealthHandler{
		mongo: mongo,
		redis: redis,
	}
}

// dependencyStatus describes the health of one dependency.
type dependencyStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Health reports overall service health including dependency checks.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := gin.H{}
	healthy := true

	for name, pinger := range map[string]Pinger{"mongodb": h.mongo, "redis": h.redis} {
		if pinger == nil {
			continue
		}

		start := time.Now()
		if err := pinger.Ping(ctx); err != nil {
			healthy = false
			deps[name] = dependencyStatus{Status: "down", Error: err.Error()}
		} else {
			deps[name] = dependencyStatus{Status: "up", Latency: time.Since(start).String()}
		}
	}

	statusCode := http.StatusOK
	statusText := "healthy"
	if !healthy {
		statusCode = http.StatusServiceUnavailable
		statusText = "degraded"
	}

	c.JSON(statusCode, gin.H{
		"status":       statusText,
		"version":      Version,
		"dependencies": deps,
	})
}

// Liveness reports whether the process is running. It never checks
// dependencies so that orchestrators do not restart a pod because a
// database is briefly unreachable.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readiness reports whether the service can handle traffic.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	for _, pinger := range []Pinger{h.mongo, h.redis} {
		if pinger == nil {
			continue
		}
		if err := pinger.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// SimpleHealth is a dependency-free health endpoint for minimal routers.
func SimpleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": Version})
}
