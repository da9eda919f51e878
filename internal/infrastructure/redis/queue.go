// Package redis provides Redis connection management and job queue
// functionality. This file implements the Asynq job queue client and
// server wrappers.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants define the types of background jobs.
const (
	// TypeEnvelopeProcess is the task type for building and delivering envelopes.
	TypeEnvelopeProcess = "envelope:process"

	// TypeWebhookDelivery is the task type for delivering webhooks.
	TypeWebhookDelivery = "webhook:delivery"
)

// Queue name constants.
const (
	// QueueCritical is for high-priority tasks that need immediate processing.
	QueueCritical = "critical"

	// QueueDefault is for standard priority tasks.
	QueueDefault = "default"

	// QueueLow is for low-priority tasks that can be delayed.
	QueueLow = "low"
)

// JobClient wraps the Asynq client for enqueuing background jobs.
type JobClient struct {
	client *asynq.Client
}

// NewJobClientFromURL creates a new Asynq job client from a Redis URL.
func NewJobClientFromURL(redisURL string) (*JobClient, error) {
	opts, err := GetAsynqRedisOpt(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		Username: opts.Username,
	})

	return &JobClient{client: client}, nil
}

// EnqueueOptions configures how a task is enqueued.
type EnqueueOptions struct {
	// Queue specifies which queue to add the task to.
	Queue string

	// MaxRetry specifies the maximum number of retry attempts.
	MaxRetry int

	// Timeout specifies the task processing timeout.
	Timeout time.Duration

	// ProcessIn schedules the task to be processed after a delay.
	ProcessIn time.Duration

	// TaskID is a unique identifier for the task (for deduplication).
	TaskID string

	// Retention specifies how long to keep the task in the completed queue.
	Retention time.Duration
}

// Enqueue adds a task to the queue for background processing.
func (c *JobClient) Enqueue(ctx context.Context, task *asynq.Task, opts *EnqueueOptions) (*asynq.TaskInfo, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}

	var asynqOpts []asynq.Option
	if opts != nil {
		if opts.Queue != "" {
			asynqOpts = append(asynqOpts, asynq.Queue(opts.Queue))
		}
		if opts.MaxRetry > 0 {
			asynqOpts = append(asynqOpts, asynq.MaxRetry(opts.MaxRetry))
		}
		if opts.Timeout > 0 {
			asynqOpts = append(asynqOpts, asynq.Timeout(opts.Timeout))
		}
		if opts.ProcessIn > 0 {
			asynqOpts = append(asynqOpts, asynq.ProcessIn(opts.ProcessIn))
		}
		if opts.TaskID != "" {
			asynqOpts = append(asynqOpts, asynq.TaskID(opts.TaskID))
		}
		if opts.Retention > 0 {
			asynqOpts = append(asynqOpts, asynq.Retention(opts.Retention))
		}
	}

	info, err := c.client.Enqueue(task, asynqOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return info, nil
}

// Close closes the job client connection.
func (c *JobClient) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close job client: %w", err)
	}
	return nil
}

// JobServer wraps the Asynq server for processing background jobs.
type JobServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewJobServerFromURL creates a new Asynq job server from a Redis URL.
func NewJobServerFromURL(redisURL string, concurrency int) (*JobServer, error) {
	opts, err := GetAsynqRedisOpt(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if concurrency == 0 {
		concurrency = 10
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
			Username: opts.Username,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Error processing task %s: %v", task.Type(), err)
			}),
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				// Exponential backoff: 10s, 20s, 40s, 80s, 160s...
				return time.Duration(10*(1<<uint(n))) * time.Second
			},
		},
	)

	return &JobServer{
		server: server,
		mux:    asynq.NewServeMux(),
	}, nil
}

// HandleFunc registers a handler function for a task type.
func (s *JobServer) HandleFunc(taskType string, handler func(context.Context, *asynq.Task) error) {
	s.mux.HandleFunc(taskType, handler)
}

// Start starts the job server and begins processing tasks.
func (s *JobServer) Start() error {
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("failed to start job server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the job server.
func (s *JobServer) Shutdown() {
	s.server.Shutdown()
}
