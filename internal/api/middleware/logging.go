package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduardo/soap-wssec/internal/api/handlers"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Format is "json" or "text".
	Format string

	// Level is the configured log level. Request entries are always
	// written at info; this middleware does not filter on Level.
	Level string
}

// LoggingMiddleware logs every request with its request ID, status,
// latency, and caller information.
type LoggingMiddleware struct {
	format string
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(cfg LoggingConfig) *LoggingMiddleware {
	return &LoggingMiddleware{format: cfg.Format}
}

// Logger returns the Gin middleware handler.
func (m *LoggingMiddleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		handlers.ObserveRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()))

		entry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"level":      "info",
			"request_id": GetRequestIDFromContext(c),
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			entry["errors"] = c.Errors.String()
		}

		m.write(entry)
	}
}

// write emits a log entry in the configured format.
func (m *LoggingMiddleware) write(entry map[string]interface{}) {
	if m.format == "text" {
		log.Printf("%s %s -> %v (%vms) request_id=%s",
			entry["method"], entry["path"], entry["status"], entry["latency_ms"], entry["request_id"])
		return
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		log.Printf("request log: %v", entry)
		return
	}
	log.Println(string(jsonBytes))
}

// RecoveryWithLogging returns a middleware that recovers from panics and
// logs them in the configured format before responding 500.
func RecoveryWithLogging(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				entry := map[string]interface{}{
					"timestamp":  time.Now().UTC().Format(time.RFC3339),
					"level":      "error",
					"event":      "panic_recovered",
					"request_id": GetRequestIDFromContext(c),
					"path":       c.Request.URL.Path,
					"panic":      fmt.Sprintf("%v", r),
				}

				if format == "text" {
					log.Printf("panic recovered on %s: %v", entry["path"], r)
				} else if jsonBytes, err := json.Marshal(entry); err == nil {
					log.Println(string(jsonBytes))
				}

				c.AbortWithStatusJSON(500, gin.H{
					"type":   "https://api.soap-wssec.dev/problems/internal-error",
					"title":  "Internal Server Error",
					"status": 500,
				})
			}
		}()

		c.Next()
	}
}
