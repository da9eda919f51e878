// Package config provides configuration loading and management for the
// SOAP WS-Security signing API. It loads environment variables with
// sensible defaults for development environments.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// Server configuration
	Port string
	Env  string

	// MongoDB configuration
	MongoDBURI      string
	MongoDBDatabase string

	// Redis configuration
	RedisURL string

	// Delivery endpoint configuration. EndpointTimeout bounds each
	// delivery request made by the worker. EndpointURL is loaded but not
	// used: envelopes are delivered only to the endpoint_url of a request.
	EndpointURL     string
	EndpointTimeout time.Duration

	// Envelope defaults. DefaultValidityMinutes is validated and reported
	// at startup but not applied to requests; a request without
	// validity_minutes gets no timestamp.
	DefaultValidityMinutes int

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Worker configuration
	WorkerConcurrency int
	WorkerMaxRetries  int

	// Rate limiting configuration
	RateLimitDefaultRPM int
	RateLimitBurst      int
}

// Load reads configuration from environment variables with defaults.
// It validates required configurations and returns an error if critical
// values are missing.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		Port: getEnvOrDefault("PORT", "8080"),
		Env:  getEnvOrDefault("ENV", "development"),

		// MongoDB defaults
		MongoDBURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBDatabase: getEnvOrDefault("MONGODB_DATABASE", "wssec"),

		// Redis defaults
		RedisURL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),

		// Delivery endpoint defaults
		EndpointURL:     getEnvOrDefault("ENDPOINT_URL", ""),
		EndpointTimeout: time.Duration(getEnvOrDefaultInt("ENDPOINT_TIMEOUT", 30)) * time.Second,

		// Envelope defaults
		DefaultValidityMinutes: getEnvOrDefaultInt("DEFAULT_VALIDITY_MINUTES", 5),

		// Logging defaults
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		// Worker defaults
		WorkerConcurrency: getEnvOrDefaultInt("WORKER_CONCURRENCY", 10),
		WorkerMaxRetries:  getEnvOrDefaultInt("WORKER_MAX_RETRIES", 3),

		// Rate limiting defaults
		RateLimitDefaultRPM: getEnvOrDefaultInt("RATE_LIMIT_DEFAULT_RPM", 100),
		RateLimitBurst:      getEnvOrDefaultInt("RATE_LIMIT_BURST", 20),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that required configuration values are present and valid.
func (c *Config) validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.Env] {
		return fmt.Errorf("invalid ENV value: %s (must be development, staging, or production)", c.Env)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid LOG_LEVEL value: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("invalid LOG_FORMAT value: %s (must be json or text)", c.LogFormat)
	}

	if c.DefaultValidityMinutes < 1 {
		return fmt.Errorf("DEFAULT_VALIDITY_MINUTES must be at least 1")
	}

	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}

	if c.RateLimitDefaultRPM < 1 {
		return fmt.Errorf("RATE_LIMIT_DEFAULT_RPM must be at least 1")
	}

	return nil
}

// IsProduction returns true if the environment is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if the environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnvOrDefault returns the value of an environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns the integer value of an environment variable or a default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
