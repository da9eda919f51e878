package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// apiKeysCollection is the name of the API keys collection.
const apiKeysCollection = "api_keys"

// ErrAPIKeyNotFound is returned when an API key is not found.
var ErrAPIKeyNotFound = errors.New("api key not found")

// RateLimitConfig defines rate limiting parameters for an API key.
type RateLimitConfig struct {
	RequestsPerMinute int `bson:"requests_per_minute" json:"requests_per_minute"`
	Burst             int `bson:"burst" json:"burst"`
}

// APIKey represents an API key for authenticating integrators.
type APIKey struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	KeyHash        string             `bson:"key_hash" json:"-"`            // SHA-256 hash of the key (never expose)
	KeyPrefix      string             `bson:"key_prefix" json:"key_prefix"` // First 8 chars for identification
	IntegratorName string             `bson:"integrator_name" json:"integrator_name"`
	WebhookURL     string             `bson:"webhook_url" json:"webhook_url"`
	WebhookSecret  string             `bson:"webhook_secret" json:"-"` // Secret for webhook signatures (never expose)
	RateLimit      RateLimitConfig    `bson:"rate_limit" json:"rate_limit"`
	Active         bool               `bson:"active" json:"active"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// APIKeyRepository provides access to API key data in MongoDB.
type APIKeyRepository struct {
	collection *mongo.Collection
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(client *Client) *APIKeyRepository {
	return &APIKeyRepository{
		collection: client.GetCollection(apiKeysCollection),
	}
}

// FindByKeyHash retrieves an API key by its hash.
// Returns ErrAPIKeyNotFound if the key does not exist.
func (r *APIKeyRepository) FindByKeyHash(ctx context.Context, keyHash string) (*APIKey, error) {
	if keyHash == "" {
		return nil, fmt.Errorf("api key hash cannot be empty")
	}

	var apiKey APIKey
	err := r.collection.FindOne(ctx, bson.M{"key_hash": keyHash}).Decode(&apiKey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to find API key: %w", err)
	}

	return &apiKey, nil
}

// Create inserts a new API key into the database.
func (r *APIKeyRepository) Create(ctx context.Context, apiKey *APIKey) error {
	if apiKey == nil {
		return fmt.Errorf("api key cannot be nil")
	}
	if apiKey.KeyHash == "" {
		return fmt.Errorf("api key hash is required")
	}
	if apiKey.KeyPrefix == "" {
		return fmt.Errorf("api key prefix is required")
	}

	now := time.Now().UTC()
	apiKey.CreatedAt = now
	apiKey.UpdatedAt = now

	if apiKey.RateLimit.RequestsPerMinute == 0 {
		apiKey.RateLimit.RequestsPerMinute = 100
	}
	if apiKey.RateLimit.Burst == 0 {
		apiKey.RateLimit.Burst = 20
	}

	result, err := r.collection.InsertOne(ctx, apiKey)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("api key already exists")
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		apiKey.ID = oid
	}

	return nil
}

// SetActive updates the active status of an API key.
func (r *APIKeyRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	if id.IsZero() {
		return fmt.Errorf("api key ID is required")
	}

	update := bson.M{
		"$set": bson.M{
			"active":     active,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update API key status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// EnsureIndexes creates the necessary indexes for the API keys collection.
// This should be called during application startup.
func (r *APIKeyRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key_hash", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "key_prefix", Value: 1}},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create api key indexes: %w", err)
	}
	return nil
}
