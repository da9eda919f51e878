package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
)

// setupTestRedis creates a miniredis instance and a connected client.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return mr, client
}

// createTestAPIKey creates an APIKey for testing with configurable rate limits.
func createTestAPIKey(prefix string, rpm, burst int) *mongodb.APIKey {
	return &mongodb.APIKey{
		KeyPrefix:      prefix,
		IntegratorName: "Test Integrator",
		Active:         true,
		RateLimit: mongodb.RateLimitConfig{
			RequestsPerMinute: rpm,
			Burst:             burst,
		},
	}
}

// setupRateLimitRouter creates a test router that injects the given API
// key into the context before rate limiting.
func setupRateLimitRouter(m *RateLimitMiddleware, apiKey *mongodb.APIKey) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if apiKey != nil {
			c.Set(APIKeyContextKey, apiKey)
		}
		c.Next()
	})
	router.Use(m.RateLimit())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsWithinLimit(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	m := NewRateLimitMiddleware(client, 100, 10)
	router := setupRateLimitRouter(m, createTestAPIKey("testkey1", 100, 10))

	for i := 0; i < 5; i++ {
		w := doRequest(router)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	// One request per minute: the second request must be rejected.
	m := NewRateLimitMiddleware(client, 1, 1)
	router := setupRateLimitRouter(m, createTestAPIKey("testkey2", 1, 1))

	first := doRequest(router)
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(router)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestRateLimit_SetsHeaders(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	m := NewRateLimitMiddleware(client, 60, 10)
	router := setupRateLimitRouter(m, createTestAPIKey("testkey3", 60, 10))

	w := doRequest(router)
	require.Equal(t, http.StatusOK, w.Code)

	limit, err := strconv.Atoi(w.Header().Get(HeaderRateLimitLimit))
	require.NoError(t, err)
	assert.Equal(t, 60, limit)

	remaining, err := strconv.Atoi(w.Header().Get(HeaderRateLimitRemaining))
	require.NoError(t, err)
	assert.Less(t, remaining, 60)
}

func TestRateLimit_FallsBackToDefaultsWithoutAPIKey(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	m := NewRateLimitMiddleware(client, 42, 5)
	router := setupRateLimitRouter(m, nil)

	w := doRequest(router)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Header().Get(HeaderRateLimitLimit))
}

func TestRateLimit_FailsOpenOnRedisError(t *testing.T) {
	mr, client := setupTestRedis(t)

	m := NewRateLimitMiddleware(client, 100, 10)
	router := setupRateLimitRouter(m, createTestAPIKey("testkey4", 100, 10))

	// Take Redis down; requests must still pass.
	mr.Close()

	w := doRequest(router)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHashAPIKey_Deterministic(t *testing.T) {
	h1 := HashAPIKey("secret-key")
	h2 := HashAPIKey("secret-key")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex SHA-256
	assert.NotEqual(t, h1, HashAPIKey("other-key"))
}

func TestGetAPIKeyPrefix(t *testing.T) {
	assert.Equal(t, "abcd1234", GetAPIKeyPrefix("abcd1234efgh5678"))
	assert.Equal(t, "short", GetAPIKeyPrefix("short"))
}
