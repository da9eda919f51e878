package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Request ID header and context key names.
const (
	// HeaderXRequestID is the standard request ID header.
	HeaderXRequestID = "X-Request-ID"

	// RequestIDContextKey is the context key for the request ID.
	RequestIDContextKey = "request_id"
)

// RequestID returns a Gin middleware that generates or propagates request
// IDs. It first checks for an existing X-Request-ID header to support
// distributed tracing; if none is present it generates a new UUID v4.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDContextKey, requestID)
		c.Header(HeaderXRequestID, requestID)

		c.Next()
	}
}

// GetRequestIDFromContext retrieves the request ID from the Gin context.
// Returns an empty string if no request ID is present.
func GetRequestIDFromContext(c *gin.Context) string {
	value, exists := c.Get(RequestIDContextKey)
	if !exists {
		return ""
	}

	requestID, ok := value.(string)
	if !ok {
		return ""
	}
	return requestID
}
