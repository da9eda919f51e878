package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduardo/soap-wssec/internal/envelope"
	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
	infraredis "github.com/eduardo/soap-wssec/internal/infrastructure/redis"
	"github.com/eduardo/soap-wssec/internal/jobs"
)

// apiKeyContextKey is the Gin context key the auth middleware stores the
// authenticated API key under.
const apiKeyContextKey = "api_key"

// CredentialRequest carries signing material in an API request. Either
// the Base64 certificate/key pair or a PFX bundle must be provided.
type CredentialRequest struct {
	// CertificateBase64 is the Base64-encoded DER certificate.
	CertificateBase64 string `json:"certificate_base64,omitempty"`

	// PrivateKeyBase64 is the Base64-encoded DER RSA private key.
	PrivateKeyBase64 string `json:"private_key_base64,omitempty"`

	// PFXBase64 is an alternative Base64-encoded PKCS#12 bundle.
	PFXBase64 string `json:"pfx_base64,omitempty"`

	// Password protects the PFX bundle.
	Password string `json:"password,omitempty"`
}

// EnvelopeCreateRequest is the request body for POST /v1/envelopes.
type EnvelopeCreateRequest struct {
	// BodyXML is the inner XML fragment wrapped into soapenv:Body.
	BodyXML string `json:"body_xml" binding:"required"`

	// ValidityMinutes adds a wsu:Timestamp valid for this many minutes.
	// Zero omits the timestamp.
	ValidityMinutes int `json:"validity_minutes,omitempty"`

	// Credential holds signing material. Omit for an unsigned envelope.
	Credential *CredentialRequest `json:"credential,omitempty"`

	// Async processes the request as a background job.
	Async bool `json:"async,omitempty"`

	// EndpointURL posts the built envelope to a WS-Security endpoint
	// (async only).
	EndpointURL string `json:"endpoint_url,omitempty"`

	// SOAPAction is the SOAPAction header used for delivery.
	SOAPAction string `json:"soap_action,omitempty"`

	// WebhookURL receives a completion callback (async only).
	WebhookURL string `json:"webhook_url,omitempty"`
}

// EnvelopeHandler serves envelope build requests.
type EnvelopeHandler struct {
	envelopeRepo *mongodb.EnvelopeRepository
	jobClient    *infraredis.JobClient
	baseURL      string
}

// EnvelopeHandlerConfig configures the envelope handler.
type EnvelopeHandlerConfig struct {
	// EnvelopeRepo persists envelope requests. Required for async mode.
	EnvelopeRepo *mongodb.EnvelopeRepository

	// JobClient enqueues background jobs. Required for async mode.
	JobClient *infraredis.JobClient

	// BaseURL is used to construct status URLs.
	BaseURL string
}

// NewEnvelopeHandler creates a new envelope handler.
func NewEnvelopeHandler(cfg EnvelopeHandlerConfig) *EnvelopeHandler {
	return &EnvelopeHandler{
		envelopeRepo: cfg.EnvelopeRepo,
		jobClient:    cfg.JobClient,
		baseURL:      cfg.BaseURL,
	}
}

// Create handles POST /v1/envelopes.
//
// Synchronous requests build the envelope inline and return it.
// Asynchronous requests persist the request, enqueue a background job,
// and return 202 with a status URL.
func (h *EnvelopeHandler) Create(c *gin.Context) {
	var req EnvelopeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if errs := validateEnvelopeRequest(&req); len(errs) > 0 {
		ValidationFailed(c, errs)
		return
	}

	if req.Async {
		h.createAsync(c, &req)
		return
	}
	h.createSync(c, &req)
}

// createSync builds the envelope inline.
func (h *EnvelopeHandler) createSync(c *gin.Context, req *EnvelopeCreateRequest) {
	start := time.Now()
	signed := req.Credential != nil

	material, err := resolveMaterial(req.Credential)
	if err != nil {
		envelopesTotal.WithLabelValues("rejected", strconv.FormatBool(signed)).Inc()
		UnprocessableEntity(c, "Invalid signing credential: "+err.Error())
		return
	}

	env := newEnvelope(req, material)
	envelopeXML, err := env.BuildXML()
	if err != nil {
		envelopesTotal.WithLabelValues("failed", strconv.FormatBool(signed)).Inc()
		UnprocessableEntity(c, "Failed to build envelope: "+err.Error())
		return
	}

	envelopesTotal.WithLabelValues("completed", strconv.FormatBool(signed)).Inc()
	envelopeDuration.WithLabelValues(strconv.FormatBool(signed)).Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, gin.H{
		"request_id":   uuid.New().String(),
		"status":       mongodb.StatusCompleted,
		"envelope_xml": envelopeXML,
	})
}

// createAsync persists the request and enqueues a processing job.
func (h *EnvelopeHandler) createAsync(c *gin.Context, req *EnvelopeCreateRequest) {
	if h.envelopeRepo == nil || h.jobClient == nil {
		ServiceUnavailable(c, "Asynchronous processing is not configured.")
		return
	}

	record := &mongodb.EnvelopeRequest{
		RequestID:       uuid.New().String(),
		Status:          mongodb.StatusPending,
		BodyXML:         req.BodyXML,
		ValidityMinutes: req.ValidityMinutes,
		EndpointURL:     req.EndpointURL,
		SOAPAction:      req.SOAPAction,
		WebhookURL:      req.WebhookURL,
	}

	if apiKey := apiKeyFromContext(c); apiKey != nil {
		record.APIKeyID = apiKey.ID
	}

	if req.Credential != nil {
		record.Credential = &mongodb.CredentialData{
			CertificateBase64: req.Credential.CertificateBase64,
			PrivateKeyBase64:  req.Credential.PrivateKeyBase64,
			PFXBase64:         req.Credential.PFXBase64,
			Password:          req.Credential.Password,
		}
	}

	if err := h.envelopeRepo.Create(c.Request.Context(), record); err != nil {
		InternalError(c, "Failed to persist the envelope request.")
		return
	}

	task, err := jobs.NewEnvelopeTask(record.RequestID)
	if err != nil {
		InternalError(c, "Failed to create the processing task.")
		return
	}

	_, err = h.jobClient.Enqueue(c.Request.Context(), task, &infraredis.EnqueueOptions{
		Queue:    infraredis.QueueDefault,
		MaxRetry: 3,
		Timeout:  2 * time.Minute,
		TaskID:   "envelope:" + record.RequestID,
	})
	if err != nil {
		log.Printf("Failed to enqueue envelope task %s: %v", record.RequestID, err)
		InternalError(c, "Failed to enqueue the envelope request.")
		return
	}

	envelopesTotal.WithLabelValues("accepted", strconv.FormatBool(req.Credential != nil)).Inc()

	c.JSON(http.StatusAccepted, gin.H{
		"request_id": record.RequestID,
		"status":     mongodb.StatusPending,
		"status_url": h.baseURL + "/v1/envelopes/status/" + record.RequestID,
	})
}

// newEnvelope picks the envelope constructor matching the request shape.
func newEnvelope(req *EnvelopeCreateRequest, material *envelope.SigningMaterial) *envelope.Envelope {
	validity := time.Duration(req.ValidityMinutes) * time.Minute

	switch {
	case material != nil && validity > 0:
		return envelope.NewSignedWithTimestamp(validity, req.BodyXML, material)
	case material != nil:
		return envelope.NewSigned(req.BodyXML, material)
	case validity > 0:
		return envelope.NewUnsignedWithTimestamp(validity, req.BodyXML)
	default:
		return envelope.NewUnsigned(req.BodyXML)
	}
}

// resolveMaterial converts a credential request into signing material.
func resolveMaterial(cred *CredentialRequest) (*envelope.SigningMaterial, error) {
	if cred == nil {
		return nil, nil
	}
	if cred.PFXBase64 != "" {
		return envelope.SigningMaterialFromPFXBase64(cred.PFXBase64, cred.Password)
	}
	return envelope.NewSigningMaterial(cred.CertificateBase64, cred.PrivateKeyBase64), nil
}

// validateEnvelopeRequest checks field constraints the JSON binding
// cannot express.
func validateEnvelopeRequest(req *EnvelopeCreateRequest) []ValidationError {
	var errs []ValidationError

	if req.ValidityMinutes < 0 {
		errs = append(errs, NewValidationError("validity_minutes", ValidationCodeOutOfRange, "validity_minutes must not be negative"))
	}

	if req.Credential != nil {
		hasPair := req.Credential.CertificateBase64 != "" && req.Credential.PrivateKeyBase64 != ""
		hasPFX := req.Credential.PFXBase64 != ""
		if !hasPair && !hasPFX {
			errs = append(errs, NewValidationError("credential", ValidationCodeRequired,
				"credential requires certificate_base64 and private_key_base64, or pfx_base64"))
		}
	}

	if req.EndpointURL != "" && !req.Async {
		errs = append(errs, NewValidationError("endpoint_url", ValidationCodeInvalid,
			"endpoint delivery requires async processing"))
	}
	if req.WebhookURL != "" && !req.Async {
		errs = append(errs, NewValidationError("webhook_url", ValidationCodeInvalid,
			"webhook callbacks require async processing"))
	}

	return errs
}

// apiKeyFromContext retrieves the authenticated API key, if any.
func apiKeyFromContext(c *gin.Context) *mongodb.APIKey {
	value, exists := c.Get(apiKeyContextKey)
	if !exists {
		return nil
	}
	apiKey, ok := value.(*mongodb.APIKey)
	if !ok {
		return nil
	}
	return apiKey
}
