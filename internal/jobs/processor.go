package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/eduardo/soap-wssec/internal/envelope"
	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
	"github.com/eduardo/soap-wssec/internal/infrastructure/soapclient"
	"github.com/eduardo/soap-wssec/internal/infrastructure/webhook"
)

// EnvelopeProcessor handles envelope job processing: building the signed
// envelope, optionally delivering it, and sending the webhook callback.
type EnvelopeProcessor struct {
	envelopeRepo  *mongodb.EnvelopeRepository
	soapClient    *soapclient.Client
	webhookSender *webhook.Sender
}

// EnvelopeProcessorConfig configures the envelope processor.
type EnvelopeProcessorConfig struct {
	// EnvelopeRepo is the repository for envelope requests.
	EnvelopeRepo *mongodb.EnvelopeRepository

	// SOAPClient delivers built envelopes to endpoints.
	SOAPClient *soapclient.Client

	// WebhookSender delivers completion callbacks.
	WebhookSender *webhook.Sender
}

// NewEnvelopeProcessor creates a new envelope processor.
func NewEnvelopeProcessor(config EnvelopeProcessorConfig) *EnvelopeProcessor {
	return &EnvelopeProcessor{
		envelopeRepo:  config.EnvelopeRepo,
		soapClient:    config.SOAPClient,
		webhookSender: config.WebhookSender,
	}
}

// ProcessEnvelope handles the envelope:process task.
func (p *EnvelopeProcessor) ProcessEnvelope(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEnvelopeTask(task)
	if err != nil {
		// Invalid payloads never become valid; do not retry.
		log.Printf("Error parsing envelope task: %v", err)
		return nil
	}

	requestID := payload.RequestID
	log.Printf("Processing envelope request: %s", requestID)

	req, err := p.envelopeRepo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, mongodb.ErrEnvelopeRequestNotFound) {
			log.Printf("Envelope request not found: %s", requestID)
			return nil
		}
		return fmt.Errorf("failed to load envelope request: %w", err)
	}

	// Skip if already processed.
	if req.Status == mongodb.StatusCompleted || req.Status == mongodb.StatusFailed {
		log.Printf("Envelope request %s already processed with status: %s", requestID, req.Status)
		return nil
	}

	if err := p.envelopeRepo.UpdateStatus(ctx, requestID, mongodb.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status to processing: %w", err)
	}

	envelopeXML, buildErr := buildEnvelope(req)
	if buildErr != nil {
		// Build failures are caller errors (bad XML, bad key); retrying
		// cannot fix them.
		log.Printf("Envelope build failed for request %s: %v", requestID, buildErr)
		if err := p.envelopeRepo.Fail(ctx, requestID, buildErr.Error()); err != nil {
			log.Printf("Error marking request failed: %v", err)
		}
		p.notify(ctx, req, mongodb.StatusFailed, buildErr.Error())
		return nil
	}

	result := &mongodb.EnvelopeResult{
		EnvelopeXML: envelopeXML,
	}

	// Deliver to the endpoint when one was requested.
	if req.EndpointURL != "" && p.soapClient != nil {
		delivery, err := p.soapClient.PostEnvelope(ctx, req.EndpointURL, req.SOAPAction, envelopeXML)
		if err != nil {
			// Transport failures are transient; let asynq retry the task.
			return fmt.Errorf("envelope delivery failed: %w", err)
		}

		result.Delivered = true
		result.DeliveryStatus = delivery.StatusCode
		if delivery.Fault != nil {
			result.FaultCode = delivery.Fault.Code
			result.FaultString = delivery.Fault.String
		}
	}

	if err := p.envelopeRepo.Complete(ctx, requestID, result); err != nil {
		return fmt.Errorf("failed to complete envelope request: %w", err)
	}

	p.notify(ctx, req, mongodb.StatusCompleted, "")
	return nil
}

// buildEnvelope constructs the SOAP envelope described by the stored
// request.
func buildEnvelope(req *mongodb.EnvelopeRequest) (string, error) {
	material, err := materialFromCredential(req.Credential)
	if err != nil {
		return "", err
	}

	var env *envelope.Envelope
	validity := time.Duration(req.ValidityMinutes) * time.Minute

	switch {
	case material != nil && validity > 0:
		env = envelope.NewSignedWithTimestamp(validity, req.BodyXML, material)
	case material != nil:
		env = envelope.NewSigned(req.BodyXML, material)
	case validity > 0:
		env = envelope.NewUnsignedWithTimestamp(validity, req.BodyXML)
	default:
		env = envelope.NewUnsigned(req.BodyXML)
	}

	return env.BuildXML()
}

// materialFromCredential resolves the stored credential into signing
// material. A nil credential means an unsigned envelope.
func materialFromCredential(cred *mongodb.CredentialData) (*envelope.SigningMaterial, error) {
	if cred == nil {
		return nil, nil
	}

	if cred.PFXBase64 != "" {
		return envelope.SigningMaterialFromPFXBase64(cred.PFXBase64, cred.Password)
	}
	if cred.CertificateBase64 != "" && cred.PrivateKeyBase64 != "" {
		return envelope.NewSigningMaterial(cred.CertificateBase64, cred.PrivateKeyBase64), nil
	}
	return nil, fmt.Errorf("credential is missing certificate or private key")
}

// ProcessWebhook handles the webhook:delivery task.
func (p *EnvelopeProcessor) ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseWebhookTask(task)
	if err != nil {
		log.Printf("Error parsing webhook task: %v", err)
		return nil
	}

	req, err := p.envelopeRepo.FindByRequestID(ctx, payload.RequestID)
	if err != nil {
		if errors.Is(err, mongodb.ErrEnvelopeRequestNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load envelope request: %w", err)
	}

	callback := map[string]interface{}{
		"request_id": req.RequestID,
		"status":     req.Status,
	}
	if req.LastError != "" {
		callback["error"] = req.LastError
	}

	result, err := p.webhookSender.Send(ctx, payload.WebhookURL, callback, "", req.RequestID)
	if err != nil {
		return fmt.Errorf("webhook delivery failed after %d attempts: %w", result.Attempts, err)
	}
	return nil
}

// notify sends the completion webhook inline. The sender's own retries
// apply; a final failure is logged and the task is not retried for it:
// the status endpoint remains the source of truth.
func (p *EnvelopeProcessor) notify(ctx context.Context, req *mongodb.EnvelopeRequest, status, errMsg string) {
	if req.WebhookURL == "" || p.webhookSender == nil {
		return
	}

	callback := map[string]interface{}{
		"request_id": req.RequestID,
		"status":     status,
	}
	if errMsg != "" {
		callback["error"] = errMsg
	}

	if _, err := p.webhookSender.Send(ctx, req.WebhookURL, callback, "", req.RequestID); err != nil {
		log.Printf("Webhook delivery for request %s failed: %v", req.RequestID, err)
	}
}
