package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-analytics/internal/interface/http/handlers"
)

func testServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&cfg)
	}
	return NewServer(cfg, Dependencies{
		HealthChecker: handlers.NewNoopHealthChecker(),
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestServer_ReadinessAndLiveness(t *testing.T) {
	s := testServer(t, nil)

	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/live", "").Code)
}

func TestServer_RequestIDPropagated(t *testing.T) {
	s := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestServer_ResetDisabledWithoutAdminKeys(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/completions/reset",
		`{"student_id": "stu-1", "lesson_id": "l1", "reset_by": "admin", "reason": "support ticket"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_ResetRequiresAPIKey(t *testing.T) {
	s := testServer(t, func(cfg *Config) {
		cfg.AdminAPIKeys = []string{"admin-secret"}
	})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/completions/reset", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_UnconfiguredHandlerReturns501(t *testing.T) {
	s := testServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/completions",
		`{"student_id": "stu-1", "lesson_id": "l1", "progress_percentage": 50}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestServer_RateLimiting(t *testing.T) {
	s := testServer(t, func(cfg *Config) {
		cfg.RateLimitPerMinute = 2
	})

	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, s, http.MethodGet, "/live", "").Code)
}
