package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCanonicalizeRouter creates a test router with the canonicalize
// endpoint registered.
func setupCanonicalizeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterMetrics()

	router := gin.New()
	router.POST("/v1/canonicalize", NewCanonicalizeHandler().Canonicalize)
	return router
}

// postJSON performs a JSON POST against the router and returns the recorder.
func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCanonicalize_Success(t *testing.T) {
	router := setupCanonicalizeRouter()

	w := postJSON(t, router, "/v1/canonicalize", gin.H{
		"xml": `<A xmlns="http://a.a" xmlns:f="http://f.f"><B xmlns="http://a.a"></B></A>`,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, `<A xmlns="http://a.a"><B></B></A>`, resp["canonical_xml"])
}

func TestCanonicalize_MissingField(t *testing.T) {
	router := setupCanonicalizeRouter()

	w := postJSON(t, router, "/v1/canonicalize", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
}

func TestCanonicalize_EmptyDocument(t *testing.T) {
	router := setupCanonicalizeRouter()

	w := postJSON(t, router, "/v1/canonicalize", gin.H{"xml": "   "})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Contains(t, problem.Detail, "no element")
}

func TestCanonicalize_InvalidPrefix(t *testing.T) {
	router := setupCanonicalizeRouter()

	w := postJSON(t, router, "/v1/canonicalize", gin.H{
		"xml": `<a xmlns:averyveryverylongprefix="http://x.x"></a>`,
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Contains(t, problem.Detail, "prefix")
}

func TestCanonicalize_MalformedXML(t *testing.T) {
	router := setupCanonicalizeRouter()

	w := postJSON(t, router, "/v1/canonicalize", gin.H{"xml": "<a><b></a>"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
