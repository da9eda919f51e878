package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduardo/soap-wssec/internal/infrastructure/mongodb"
)

// StatusHandler serves envelope request status lookups.
type StatusHandler struct {
	envelopeRepo *mongodb.EnvelopeRepository
	baseURL      string
}

// StatusHandlerConfig configures the status handler.
type StatusHandlerConfig struct {
	// EnvelopeRepo is the repository for envelope requests.
	EnvelopeRepo *mongodb.EnvelopeRepository

	// BaseURL is used to construct status URLs.
	BaseURL string
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(cfg StatusHandlerConfig) *StatusHandler {
	return &StatusHandler{
		envelopeRepo: cfg.EnvelopeRepo,
		baseURL:      cfg.BaseURL,
	}
}

// StatusResponse is the response body for status lookups.
type StatusResponse struct {
	RequestID   string `json:"request_id"`
	Status      string `json:"status"`
	EnvelopeXML string `json:"envelope_xml,omitempty"`
	Delivered   bool   `json:"delivered,omitempty"`
	FaultCode   string `json:"fault_code,omitempty"`
	FaultString string `json:"fault_string,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Get handles GET /v1/envelopes/status/:requestId.
func (h *StatusHandler) Get(c *gin.Context) {
	requestID := c.Param("requestId")
	if requestID == "" {
		BadRequest(c, "requestId path parameter is required")
		return
	}

	req, err := h.envelopeRepo.FindByRequestID(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, mongodb.ErrEnvelopeRequestNotFound) {
			NotFound(c, "No envelope request with the given ID was found.")
			return
		}
		InternalError(c, "Failed to load the envelope request.")
		return
	}

	// Requests are only visible to the integrator that created them.
	if apiKey := apiKeyFromContext(c); apiKey != nil && !req.APIKeyID.IsZero() && req.APIKeyID != apiKey.ID {
		NotFound(c, "No envelope request with the given ID was found.")
		return
	}

	resp := StatusResponse{
		RequestID: req.RequestID,
		Status:    req.Status,
		Error:     req.LastError,
	}
	if req.Result != nil {
		resp.EnvelopeXML = req.Result.EnvelopeXML
		resp.Delivered = req.Result.Delivered
		resp.FaultCode = req.Result.FaultCode
		resp.FaultString = req.Result.FaultString
	}

	c.JSON(http.StatusOK, resp)
}
