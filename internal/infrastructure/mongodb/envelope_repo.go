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

// envelopeRequestsCollection is the name of the envelope requests collection.
const envelopeRequestsCollection = "envelope_requests"

// ErrEnvelopeRequestNotFound is returned when an envelope request is not found.
var ErrEnvelopeRequestNotFound = errors.New("envelope request not found")

// Envelope request lifecycle statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// EnvelopeRequest represents an envelope signing request stored in MongoDB.
type EnvelopeRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RequestID string             `bson:"request_id"`
	APIKeyID  primitive.ObjectID `bson:"api_key_id"`
	Status    string             `bson:"status"`

	// BodyXML is the caller-supplied inner body fragment.
	BodyXML string `bson:"body_xml"`

	// ValidityMinutes is the requested validity window; zero means the
	// envelope carries no timestamp.
	ValidityMinutes int `bson:"validity_minutes,omitempty"`

	// Credential holds the signing material for signed envelopes.
	Credential *CredentialData `bson:"credential,omitempty"`

	// EndpointURL is the optional WS-Security endpoint the signed
	// envelope is delivered to after building.
	EndpointURL string `bson:"endpoint_url,omitempty"`

	// SOAPAction is the SOAPAction header used for delivery.
	SOAPAction string `bson:"soap_action,omitempty"`

	// WebhookURL receives the completion callback.
	WebhookURL string `bson:"webhook_url,omitempty"`

	// Result holds the built envelope on success.
	Result *EnvelopeResult `bson:"result,omitempty"`

	// Processing tracking.
	RetryCount int    `bson:"retry_count"`
	LastError  string `bson:"last_error,omitempty"`

	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

// CredentialData holds signing material for a request. Base64 fields are
// cleared after processing completes.
type CredentialData struct {
	// CertificateBase64 is the Base64 DER certificate.
	CertificateBase64 string `bson:"certificate_base64,omitempty"`

	// PrivateKeyBase64 is the Base64 DER private key.
	PrivateKeyBase64 string `bson:"private_key_base64,omitempty"`

	// PFXBase64 and Password carry an alternative PKCS#12 bundle.
	PFXBase64 string `bson:"pfx_base64,omitempty"`
	Password  string `bson:"password,omitempty"`

	// SubjectCN is the certificate subject Common Name (for audit).
	SubjectCN string `bson:"subject_cn,omitempty"`
}

// EnvelopeResult contains the outcome of a completed request.
type EnvelopeResult struct {
	// EnvelopeXML is the built SOAP envelope.
	EnvelopeXML string `bson:"envelope_xml"`

	// BodyDigest is the Base64 SHA-256 digest of the canonical body.
	BodyDigest string `bson:"body_digest,omitempty"`

	// Delivered reports whether the envelope was posted to an endpoint.
	Delivered bool `bson:"delivered"`

	// DeliveryStatus is the HTTP status returned by the endpoint.
	DeliveryStatus int `bson:"delivery_status,omitempty"`

	// FaultCode and FaultString hold an endpoint SOAP fault, if any.
	FaultCode   string `bson:"fault_code,omitempty"`
	FaultString string `bson:"fault_string,omitempty"`
}

// EnvelopeRepository provides access to envelope request data in MongoDB.
type EnvelopeRepository struct {
	collection *mongo.Collection
}

// NewEnvelopeRepository creates a new envelope repository.
func NewEnvelopeRepository(client *Client) *EnvelopeRepository {
	return &EnvelopeRepository{
		collection: client.GetCollection(envelopeRequestsCollection),
	}
}

// Create inserts a new envelope request into the database.
func (r *EnvelopeRepository) Create(ctx context.Context, req *EnvelopeRequest) error {
	if req == nil {
		return fmt.Errorf("envelope request cannot be nil")
	}
	if req.RequestID == "" {
		return fmt.Errorf("request ID is required")
	}

	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = StatusPending
	}

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("envelope request with ID %s already exists", req.RequestID)
		}
		return fmt.Errorf("failed to create envelope request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid
	}

	return nil
}

// FindByRequestID retrieves an envelope request by its request ID.
func (r *EnvelopeRepository) FindByRequestID(ctx context.Context, requestID string) (*EnvelopeRequest, error) {
	if requestID == "" {
		return nil, fmt.Errorf("request ID cannot be empty")
	}

	var req EnvelopeRequest
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrEnvelopeRequestNotFound
		}
		return nil, fmt.Errorf("failed to find envelope request: %w", err)
	}

	return &req, nil
}

// UpdateStatus updates the status of an envelope request.
func (r *EnvelopeRepository) UpdateStatus(ctx context.Context, requestID, status string) error {
	if requestID == "" {
		return fmt.Errorf("request ID cannot be empty")
	}
	if status == "" {
		return fmt.Errorf("status cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"request_id": requestID}, update)
	if err != nil {
		return fmt.Errorf("failed to update envelope request status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrEnvelopeRequestNotFound
	}

	return nil
}

// Complete stores the result, clears the signing credential, and marks
// the request completed.
func (r *EnvelopeRepository) Complete(ctx context.Context, requestID string, result *EnvelopeResult) error {
	if requestID == "" {
		return fmt.Errorf("request ID cannot be empty")
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":       StatusCompleted,
			"result":       result,
			"updated_at":   now,
			"processed_at": now,
		},
		"$unset": bson.M{
			"credential.certificate_base64": "",
			"credential.private_key_base64": "",
			"credential.pfx_base64":         "",
			"credential.password":           "",
		},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"request_id": requestID}, update)
	if err != nil {
		return fmt.Errorf("failed to complete envelope request: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEnvelopeRequestNotFound
	}

	return nil
}

// Fail records a terminal failure for the request.
func (r *EnvelopeRepository) Fail(ctx context.Context, requestID, lastError string) error {
	if requestID == "" {
		return fmt.Errorf("request ID cannot be empty")
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":       StatusFailed,
			"last_error":   lastError,
			"updated_at":   now,
			"processed_at": now,
		},
		"$inc": bson.M{"retry_count": 1},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"request_id": requestID}, update)
	if err != nil {
		return fmt.Errorf("failed to mark envelope request failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEnvelopeRequestNotFound
	}

	return nil
}

// EnsureIndexes creates the necessary indexes for the envelope requests
// collection. This should be called during application startup.
func (r *EnvelopeRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "api_key_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create envelope request indexes: %w", err)
	}
	return nil
}
