// Package soapclient provides a client for posting WS-Security SOAP
// envelopes to remote endpoints.
package soapclient

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Default transport limits.
const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// Result holds the outcome of posting an envelope to an endpoint.
type Result struct {
	// StatusCode is the HTTP status returned by the endpoint.
	StatusCode int

	// Body is the raw response body.
	Body string

	// Fault holds the parsed SOAP fault, if the endpoint returned one.
	Fault *Fault

	// Elapsed is how long the endpoint took to respond.
	Elapsed time.Duration
}

// Fault represents a SOAP 1.1 fault returned by an endpoint.
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Actor  string `xml:"faultactor,omitempty"`
	Detail string `xml:"detail,omitempty"`
}

// Error renders the fault as an error message.
func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

// faultEnvelope is the wire shape of a fault response.
type faultEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *Fault `xml:"Fault"`
	} `xml:"Body"`
}

// ClientConfig configures the SOAP delivery client.
type ClientConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Certificate is an optional TLS client certificate for mTLS endpoints.
	Certificate *tls.Certificate

	// InsecureSkipVerify disables TLS verification (only for testing).
	InsecureSkipVerify bool

	// MaxRetries is the maximum number of retry attempts for transient failures.
	MaxRetries int

	// RetryDelay is the initial delay between retries (doubles each retry).
	RetryDelay time.Duration

	// Logger is an optional logger for debugging.
	Logger *log.Logger
}

// Client posts SOAP envelopes over HTTP.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
}

// NewClient creates a new SOAP delivery client.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaultRetryDelay
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: config.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
	if config.Certificate != nil {
		tlsConfig.Certificates = []tls.Certificate{*config.Certificate}
	}

	transport := &http.Transport{
		TLSClientConfig:     tlsConfig,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		logger:     config.Logger,
	}
}

// PostEnvelope delivers an envelope to the endpoint, retrying transient
// failures with exponential backoff. A SOAP fault in the response is
// returned inside the Result, not as an error: the endpoint answered,
// the message was rejected.
func (c *Client) PostEnvelope(ctx context.Context, endpointURL, soapAction, envelopeXML string) (*Result, error) {
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}

			c.logDebug("Retrying envelope delivery (attempt %d/%d) after %v", attempt+1, c.maxRetries+1, delay)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.doPost(ctx, endpointURL, soapAction, envelopeXML)
		if err != nil {
			lastErr = err
			if !isRetryableError(err) {
				return nil, fmt.Errorf("envelope delivery failed: %w", err)
			}
			c.logDebug("Envelope delivery attempt %d failed: %v", attempt+1, err)
			continue
		}

		result.Elapsed = time.Since(start)
		return result, nil
	}

	return nil, fmt.Errorf("envelope delivery failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// doPost performs a single delivery attempt.
func (c *Client) doPost(ctx context.Context, endpointURL, soapAction, envelopeXML string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, strings.NewReader(envelopeXML))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Accept", "text/xml")
	if soapAction != "" {
		req.Header.Set("SOAPAction", soapAction)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	body := string(bodyBytes)
	c.logDebug("Endpoint response (status %d): %s", resp.StatusCode, body)

	result := &Result{
		StatusCode: resp.StatusCode,
		Body:       body,
	}

	// SOAP 1.1 faults arrive with status 500; anything else unexpected is
	// a transport-level failure.
	if resp.StatusCode != http.StatusOK {
		if fault := parseFault(body); fault != nil {
			result.Fault = fault
			return result, nil
		}
		return nil, fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
	}

	result.Fault = parseFault(body)
	return result, nil
}

// parseFault extracts a SOAP fault from a response body, if present.
func parseFault(body string) *Fault {
	if !strings.Contains(body, "Fault") {
		return nil
	}

	var env faultEnvelope
	if err := xml.Unmarshal([]byte(body), &env); err != nil {
		return nil
	}
	return env.Body.Fault
}

// isRetryableError determines if an error warrants a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"i/o timeout",
		"eof",
		"no such host",
		"server misbehaving",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// logDebug logs a debug message if a logger is configured.
func (c *Client) logDebug(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
