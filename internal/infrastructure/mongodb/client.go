// Package mongodb provides MongoDB connection management and repositories
// for the SOAP WS-Security signing API.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// defaultConnectTimeout is the default timeout for establishing a connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPingTimeout is the default timeout for ping operations.
	defaultPingTimeout = 5 * time.Second

	// defaultMaxPoolSize is the default maximum number of connections in the pool.
	defaultMaxPoolSize = 100

	// defaultMinPoolSize is the default minimum number of connections in the pool.
	defaultMinPoolSize = 10

	// defaultMaxIdleTime is the default maximum time a connection can remain idle.
	defaultMaxIdleTime = 30 * time.Second
)

// Client wraps the MongoDB client with pooling and health checks.
type Client struct {
	client       *mongo.Client
	databaseName string
}

// ClientOptions configures the MongoDB client.
type ClientOptions struct {
	URI            string
	DatabaseName   string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// NewClient creates a new MongoDB client with connection pooling.
// It establishes a connection and verifies connectivity with a ping.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("mongodb: URI is required")
	}
	if opts.DatabaseName == "" {
		return nil, fmt.Errorf("mongodb: database name is required")
	}

	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.MaxPoolSize == 0 {
		opts.MaxPoolSize = defaultMaxPoolSize
	}
	if opts.MinPoolSize == 0 {
		opts.MinPoolSize = defaultMinPoolSize
	}
	if opts.MaxIdleTime == 0 {
		opts.MaxIdleTime = defaultMaxIdleTime
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize).
		SetMaxConnIdleTime(opts.MaxIdleTime).
		SetServerSelectionTimeout(opts.ConnectTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: failed to connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping failed: %w", err)
	}

	return &Client{
		client:       client,
		databaseName: opts.DatabaseName,
	}, nil
}

// GetDatabase returns the configured database.
func (c *Client) GetDatabase() *mongo.Database {
	return c.client.Database(c.databaseName)
}

// GetCollection returns a collection from the configured database.
func (c *Client) GetCollection(name string) *mongo.Collection {
	return c.GetDatabase().Collection(name)
}

// Ping checks the connection to MongoDB.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if err := c.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb: ping failed: %w", err)
	}
	return nil
}

// Disconnect gracefully closes the MongoDB connection.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb: disconnect failed: %w", err)
	}
	return nil
}

// DatabaseName returns the configured database name.
func (c *Client) DatabaseName() string {
	return c.databaseName
}
