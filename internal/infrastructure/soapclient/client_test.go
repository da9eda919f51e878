package soapclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnvelope = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body></soapenv:Body></soapenv:Envelope>`

func TestPostEnvelope_Success(t *testing.T) {
	var gotContentType, gotSOAPAction string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotSOAPAction = r.Header.Get("SOAPAction")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body><Ack/></soapenv:Body></soapenv:Envelope>`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Timeout: 5 * time.Second})

	result, err := client.PostEnvelope(context.Background(), server.URL, "urn:example:submit", testEnvelope)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Nil(t, result.Fault)
	assert.Equal(t, "text/xml; charset=utf-8", gotContentType)
	assert.Equal(t, "urn:example:submit", gotSOAPAction)
	assert.Contains(t, result.Body, "<Ack/>")
}

func TestPostEnvelope_SOAPFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
<soapenv:Body><soapenv:Fault><faultcode>wsse:InvalidSecurity</faultcode><faultstring>Signature verification failed</faultstring></soapenv:Fault></soapenv:Body>
</soapenv:Envelope>`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Timeout: 5 * time.Second})

	result, err := client.PostEnvelope(context.Background(), server.URL, "", testEnvelope)
	require.NoError(t, err, "a fault response is an answer, not a transport error")

	require.NotNil(t, result.Fault)
	assert.Equal(t, "wsse:InvalidSecurity", result.Fault.Code)
	assert.Equal(t, "Signature verification failed", result.Fault.String)
	assert.Contains(t, result.Fault.Error(), "InvalidSecurity")
}

func TestPostEnvelope_RetriesTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			// Close the connection to simulate a transient network failure.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	})

	result, err := client.PostEnvelope(context.Background(), server.URL, "", testEnvelope)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, 3, attempts)
}

func TestPostEnvelope_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, _ := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.Close()
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		Timeout:    time.Second,
		MaxRetries: 5,
		RetryDelay: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.PostEnvelope(ctx, server.URL, "", testEnvelope)
	assert.Error(t, err)
}

func TestPostEnvelope_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such service"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: 10 * time.Millisecond,
	})

	_, err := client.PostEnvelope(context.Background(), server.URL, "", testEnvelope)
	assert.Error(t, err)
}

func TestParseFault_NoFault(t *testing.T) {
	assert.Nil(t, parseFault("<ok/>"))
	assert.Nil(t, parseFault("plain text"))
}
