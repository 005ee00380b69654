package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagnosticsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewDiagnosticsHandler(services.NewDiagnosticsService(10)).SetupRoutes(router)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDiagnosticsLifecycle(t *testing.T) {
	router := diagnosticsRouter()

	w := postJSON(t, router, "/api/v1/diagnostics", gin.H{
		"type":    "ping",
		"success": true,
		"data":    gin.H{"rtt_ms": 12},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = postJSON(t, router, "/api/v1/diagnostics", gin.H{
		"type":    "dns",
		"success": false,
		"error":   "NXDOMAIN",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/diagnostics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []domain.DiagnosticResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, domain.DiagnosticPing, resp.Results[0].Type)
	assert.False(t, resp.Results[0].Timestamp.IsZero())
	assert.Equal(t, "NXDOMAIN", resp.Results[1].Error)

	req, _ = http.NewRequest(http.MethodDelete, "/api/v1/diagnostics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/diagnostics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
}

func TestDiagnosticsRejectsUnknownType(t *testing.T) {
	router := diagnosticsRouter()

	w := postJSON(t, router, "/api/v1/diagnostics", gin.H{"type": "portscan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
