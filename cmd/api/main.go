// Package main provides the entry point for the SOAP WS-Security signing
// API server. It initializes all dependencies, sets up graceful shutdown,
// and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduardo/soap-wssec/internal/api"
	"github.com/eduardo/soap-wssec/internal/api/handlers"
	"github.com/eduardo/soap-wssec/internal/config"
	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
	infraredis "github.com/eduardo/soap-wssec/internal/infrastructure/redis"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown.
	shutdownTimeout = 30 * time.Second

	// startupTimeout is the maximum time to wait for dependencies to connect.
	startupTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logStartupInfo(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	mongoClient, err := mongodb.NewClient(ctx, mongodb.ClientOptions{
		URI:          cfg.MongoDBURI,
		DatabaseName: cfg.MongoDBDatabase,
	})
	if err != nil {
		log.Fatalf("Failed to initialize MongoDB: %v", err)
	}
	log.Printf("MongoDB connected successfully to database: %s", cfg.MongoDBDatabase)

	redisClient, err := infraredis.NewClient(ctx, infraredis.ClientOptions{URL: cfg.RedisURL})
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	log.Println("Redis connected successfully")

	jobClient, err := infraredis.NewJobClientFromURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize job client: %v", err)
	}

	apiKeyRepo := mongodb.NewAPIKeyRepository(mongoClient)
	envelopeRepo := mongodb.NewEnvelopeRepository(mongoClient)

	if err := apiKeyRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to ensure API key indexes: %v", err)
	}
	if err := envelopeRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to ensure envelope request indexes: %v", err)
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	router := api.NewRouter(api.RouterConfig{
		Config:       cfg,
		MongoClient:  mongoClient,
		RedisClient:  redisClient,
		APIKeyRepo:   apiKeyRepo,
		EnvelopeRepo: envelopeRepo,
		JobClient:    jobClient,
		BaseURL:      baseURL,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting SOAP WS-Security signing API on port %s", cfg.Port)
		log.Printf("Environment: %s", cfg.Env)
		log.Printf("Health check: http://localhost:%s/health", cfg.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Shutdown initiated by signal: %s", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests first,
	// then release the backing services.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := jobClient.Close(); err != nil {
		log.Printf("Job client shutdown error: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Redis shutdown error: %v", err)
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Printf("MongoDB shutdown error: %v", err)
	}

	log.Println("Server exited gracefully")
}

// logStartupInfo logs application startup information.
func logStartupInfo(cfg *config.Config) {
	log.Println("=================================================")
	log.Println("SOAP WS-Security signing API")
	log.Printf("Version: %s", handlers.Version)
	log.Printf("Environment: %s", cfg.Env)
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Log Level: %s", cfg.LogLevel)
	log.Printf("Log Format: %s", cfg.LogFormat)
	log.Printf("Default validity: %d minutes", cfg.DefaultValidityMinutes)
	log.Printf("Worker Concurrency: %d", cfg.WorkerConcurrency)
	log.Printf("Rate Limit (RPM): %d", cfg.RateLimitDefaultRPM)
	log.Println("=================================================")
}
