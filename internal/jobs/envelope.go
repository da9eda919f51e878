// Package jobs provides background job definitions and handlers for the
// SOAP WS-Security signing API.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants.
const (
	// TypeEnvelopeProcess is the task type for building and delivering envelopes.
	TypeEnvelopeProcess = "envelope:process"

	// TypeWebhookDelivery is the task type for webhook delivery.
	TypeWebhookDelivery = "webhook:delivery"
)

// EnvelopeTaskPayload contains the data needed to process an envelope request.
type EnvelopeTaskPayload struct {
	// RequestID is the unique identifier of the envelope request.
	RequestID string `json:"request_id"`
}

// NewEnvelopeTask creates a new envelope processing task.
func NewEnvelopeTask(requestID string) (*asynq.Task, error) {
	if requestID == "" {
		return nil, fmt.Errorf("request ID is required")
	}

	data, err := json.Marshal(EnvelopeTaskPayload{RequestID: requestID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope task payload: %w", err)
	}

	return asynq.NewTask(TypeEnvelopeProcess, data), nil
}

// ParseEnvelopeTask parses an envelope task and returns its payload.
func ParseEnvelopeTask(task *asynq.Task) (*EnvelopeTaskPayload, error) {
	if task == nil {
		return nil, fmt.Errorf("task is nil")
	}
	if task.Type() != TypeEnvelopeProcess {
		return nil, fmt.Errorf("unexpected task type: %s (expected %s)", task.Type(), TypeEnvelopeProcess)
	}

	var payload EnvelopeTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope task payload: %w", err)
	}
	if payload.RequestID == "" {
		return nil, fmt.Errorf("task payload is missing request_id")
	}

	return &payload, nil
}

// WebhookTaskPayload contains the data needed to deliver a webhook.
type WebhookTaskPayload struct {
	// RequestID is the envelope request the callback reports on.
	RequestID string `json:"request_id"`

	// WebhookURL is the callback destination.
	WebhookURL string `json:"webhook_url"`
}

// NewWebhookTask creates a new webhook delivery task.
func NewWebhookTask(requestID, webhookURL string) (*asynq.Task, error) {
	if requestID == "" {
		return nil, fmt.Errorf("request ID is required")
	}
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}

	data, err := json.Marshal(WebhookTaskPayload{RequestID: requestID, WebhookURL: webhookURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook task payload: %w", err)
	}

	return asynq.NewTask(TypeWebhookDelivery, data), nil
}

// ParseWebhookTask parses a webhook task and returns its payload.
func ParseWebhookTask(task *asynq.Task) (*WebhookTaskPayload, error) {
	if task == nil {
		return nil, fmt.Errorf("task is nil")
	}
	if task.Type() != TypeWebhookDelivery {
		return nil, fmt.Errorf("unexpected task type: %s (expected %s)", task.Type(), TypeWebhookDelivery)
	}

	var payload WebhookTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook task payload: %w", err)
	}
	if payload.RequestID == "" {
		return nil, fmt.Errorf("task payload is missing request_id")
	}

	return &payload, nil
}
