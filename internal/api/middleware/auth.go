// Package middleware provides HTTP middleware for the SOAP WS-Security
// signing API.
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduardo/soap-wssec/internal/api/handlers"
	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
)

// Context keys for storing request-scoped values.
const (
	// APIKeyContextKey is the context key for the authenticated API key.
	APIKeyContextKey = "api_key"

	// APIKeyHeaderName is the HTTP header name for the API key.
	APIKeyHeaderName = "X-API-Key"
)

// APIKeyRepository defines the interface for API key lookups.
type APIKeyRepository interface {
	FindByKeyHash(ctx context.Context, keyHash string) (*mongodb.APIKey, error)
}

// AuthMiddleware provides API key authentication.
type AuthMiddleware struct {
	repo APIKeyRepository
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(repo APIKeyRepository) *AuthMiddleware {
	return &AuthMiddleware{repo: repo}
}

// Authenticate returns a Gin middleware handler that authenticates
// requests. It extracts the API key from the X-API-Key header, hashes it
// with SHA-256, looks up the key in the database, and verifies it is
// active.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader(APIKeyHeaderName))
		if apiKey == "" {
			handlers.Unauthorized(c, "Missing API key. Include the X-API-Key header in your request.")
			c.Abort()
			return
		}

		storedKey, err := m.repo.FindByKeyHash(c.Request.Context(), HashAPIKey(apiKey))
		if err != nil {
			if errors.Is(err, mongodb.ErrAPIKeyNotFound) {
				handlers.Unauthorized(c, "Invalid API key. The provided key was not found.")
				c.Abort()
				return
			}
			handlers.InternalError(c, "An error occurred while validating the API key.")
			c.Abort()
			return
		}

		if !storedKey.Active {
			handlers.Unauthorized(c, "API key is inactive. Please contact support to reactivate.")
			c.Abort()
			return
		}

		c.Set(APIKeyContextKey, storedKey)
		c.Next()
	}
}

// GetAPIKeyFromContext retrieves the authenticated API key from the Gin
// context. Returns nil if no API key is present.
func GetAPIKeyFromContext(c *gin.Context) *mongodb.APIKey {
	value, exists := c.Get(APIKeyContextKey)
	if !exists {
		return nil
	}

	apiKey, ok := value.(*mongodb.APIKey)
	if !ok {
		return nil
	}
	return apiKey
}

// HashAPIKey computes the SHA-256 hash of an API key as stored in the
// database.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// GetAPIKeyPrefix returns the first 8 characters of an API key for
// identification.
func GetAPIKeyPrefix(key string) string {
	if len(key) < 8 {
		return key
	}
	return key[:8]
}
