package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduardo/soap-wssec/internal/canonical"
)

// CanonicalizeRequest is the request body for POST /v1/canonicalize.
type CanonicalizeRequest struct {
	// XML is the document or fragment to canonicalize.
	XML string `json:"xml" binding:"required"`
}

// CanonicalizeHandler exposes the exclusive canonicalizer directly, which
// integrators use to debug digest mismatches against their own tooling.
type CanonicalizeHandler struct{}

// NewCanonicalizeHandler creates a new canonicalize handler.
func NewCanonicalizeHandler() *CanonicalizeHandler {
	return &CanonicalizeHandler{}
}

// Canonicalize handles POST /v1/canonicalize.
func (h *CanonicalizeHandler) Canonicalize(c *gin.Context) {
	var req CanonicalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		canonicalizationsTotal.WithLabelValues("rejected").Inc()
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := canonical.Canonicalize(req.XML)
	if err != nil {
		canonicalizationsTotal.WithLabelValues("failed").Inc()
		UnprocessableEntity(c, canonicalizeErrorDetail(err))
		return
	}

	canonicalizationsTotal.WithLabelValues("completed").Inc()
	c.JSON(http.StatusOK, gin.H{
		"canonical_xml": result,
	})
}

// canonicalizeErrorDetail maps canonicalizer errors onto stable,
// client-facing messages.
func canonicalizeErrorDetail(err error) string {
	switch {
	case errors.Is(err, canonical.ErrEmptyDoc):
		return "The document contains no element."
	case errors.Is(err, canonical.ErrReadTextValue):
		return "Character data appeared before any start tag."
	case errors.Is(err, canonical.ErrInvalidPrefix):
		return "A namespace prefix is not ASCII or exceeds 16 bytes: " + err.Error()
	default:
		return "The XML could not be read: " + err.Error()
	}
}
