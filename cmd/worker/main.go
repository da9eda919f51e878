// Package main provides the entry point for the background worker that
// builds and delivers SOAP WS-Security envelopes.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduardo/soap-wssec/internal/config"
	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
	infraredis "github.com/eduardo/soap-wssec/internal/infrastructure/redis"
	"github.com/eduardo/soap-wssec/internal/infrastructure/soapclient"
	"github.com/eduardo/soap-wssec/internal/infrastructure/webhook"
	"github.com/eduardo/soap-wssec/internal/jobs"
)

// startupTimeout is the maximum time to wait for dependencies to connect.
const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("Starting SOAP WS-Security envelope worker")
	log.Printf("Environment: %s", cfg.Env)
	log.Printf("Concurrency: %d", cfg.WorkerConcurrency)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	mongoClient, err := mongodb.NewClient(ctx, mongodb.ClientOptions{
		URI:          cfg.MongoDBURI,
		DatabaseName: cfg.MongoDBDatabase,
	})
	if err != nil {
		log.Fatalf("Failed to initialize MongoDB: %v", err)
	}

	envelopeRepo := mongodb.NewEnvelopeRepository(mongoClient)

	jobServer, err := infraredis.NewJobServerFromURL(cfg.RedisURL, cfg.WorkerConcurrency)
	if err != nil {
		log.Fatalf("Failed to initialize job server: %v", err)
	}

	processor := jobs.NewEnvelopeProcessor(jobs.EnvelopeProcessorConfig{
		EnvelopeRepo: envelopeRepo,
		SOAPClient: soapclient.NewClient(soapclient.ClientConfig{
			Timeout:    cfg.EndpointTimeout,
			MaxRetries: cfg.WorkerMaxRetries,
		}),
		WebhookSender: webhook.NewSender(webhook.SenderConfig{}),
	})

	jobServer.HandleFunc(jobs.TypeEnvelopeProcess, processor.ProcessEnvelope)
	jobServer.HandleFunc(jobs.TypeWebhookDelivery, processor.ProcessWebhook)

	if err := jobServer.Start(); err != nil {
		log.Fatalf("Failed to start job server: %v", err)
	}
	log.Println("Worker started, waiting for tasks")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Shutdown initiated by signal: %s", sig)

	jobServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Printf("MongoDB shutdown error: %v", err)
	}

	log.Println("Worker exited gracefully")
}
