package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	goredis "github.com/redis/go-redis/v9"

	"github.com/eduardo/soap-wssec/internal/api/handlers"
)

// Rate limit header names.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimitMiddleware provides rate limiting using the GCRA (Generic Cell
// Rate Algorithm) backed by Redis.
type RateLimitMiddleware struct {
	limiter      *redis_rate.Limiter
	defaultRPM   int
	defaultBurst int
}

// NewRateLimitMiddleware creates a new rate limiting middleware.
func NewRateLimitMiddleware(redisClient *goredis.Client, defaultRPM, defaultBurst int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:      redis_rate.NewLimiter(redisClient),
		defaultRPM:   defaultRPM,
		defaultBurst: defaultBurst,
	}
}

// RateLimit returns a Gin middleware handler that enforces rate limits.
// The requests-per-minute figure comes from the authenticated API key,
// falling back to the default when absent. The burst always equals that
// figure; neither the API key's Burst nor the default burst is consulted.
func (m *RateLimitMiddleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		rpm := m.requestsPerMinute(c)
		key := m.buildKey(c)

		result, err := m.limiter.Allow(c.Request.Context(), key, redis_rate.PerMinute(rpm))
		if err != nil {
			// Fail open: a broken limiter should not take the API down.
			c.Next()
			return
		}

		m.setRateLimitHeaders(c, result, rpm)

		if result.Allowed == 0 {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			handlers.TooManyRequests(c,
				fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
				retryAfter,
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

// requestsPerMinute resolves the per-minute limit for the current caller.
func (m *RateLimitMiddleware) requestsPerMinute(c *gin.Context) int {
	apiKey := GetAPIKeyFromContext(c)
	if apiKey == nil || apiKey.RateLimit.RequestsPerMinute <= 0 {
		return m.defaultRPM
	}
	return apiKey.RateLimit.RequestsPerMinute
}

// buildKey constructs the rate limit key for the current request. Keys
// are scoped by API key prefix so each integrator gets its own budget;
// unauthenticated requests fall back to the client IP.
func (m *RateLimitMiddleware) buildKey(c *gin.Context) string {
	apiKey := GetAPIKeyFromContext(c)
	if apiKey != nil && apiKey.KeyPrefix != "" {
		return fmt.Sprintf("ratelimit:%s", apiKey.KeyPrefix)
	}
	return fmt.Sprintf("ratelimit:ip:%s", c.ClientIP())
}

// setRateLimitHeaders adds rate limit information to response headers.
func (m *RateLimitMiddleware) setRateLimitHeaders(c *gin.Context, result *redis_rate.Result, limit int) {
	c.Header(HeaderRateLimitLimit, strconv.Itoa(limit))
	c.Header(HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))
	c.Header(HeaderRateLimitReset, strconv.FormatInt(result.ResetAfter.Milliseconds(), 10))
}
