package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calrelay/internal/google"
)

func serveHealth(t *testing.T, h *HealthChecker, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil, "v1")
	h.SetShuttingDown()

	rec, body := serveHealth(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *HealthChecker)
		wantStatus int
		wantChecks map[string]any
	}{
		{
			name:       "ready by default",
			setup:      func(*HealthChecker) {},
			wantStatus: http.StatusOK,
			wantChecks: map[string]any{"ready": "ok", "shutdown": "ok"},
		},
		{
			name:       "not ready",
			setup:      func(h *HealthChecker) { h.SetReady(false) },
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]any{"ready": "not ready", "shutdown": "ok"},
		},
		{
			name:       "shutting down",
			setup:      func(h *HealthChecker) { h.SetShuttingDown() },
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]any{"ready": "ok", "shutdown": "shutting down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(nil, "v1")
			tt.setup(h)

			rec, body := serveHealth(t, h, "/readyz")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantChecks, body["checks"])
		})
	}
}

func TestHealthChecker_ReadinessIgnoresMissingCredentials(t *testing.T) {
	h := NewHealthChecker(func() (google.Config, error) {
		cfg := google.Config{}
		return cfg, cfg.Validate()
	}, "v1")

	rec, _ := serveHealth(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthChecker_Detailed(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		h := NewHealthChecker(func() (google.Config, error) { return google.Config{}, nil }, "v1.2.3")

		rec, body := serveHealth(t, h, "/healthz/detailed")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "v1.2.3", body["version"])
		assert.NotEmpty(t, body["uptime"])

		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ok", checks["provider_config"])
	})

	t.Run("missing credentials", func(t *testing.T) {
		h := NewHealthChecker(func() (google.Config, error) {
			cfg := google.Config{BaseURL: "http://localhost:3000"}
			return cfg, cfg.Validate()
		}, "v1")

		rec, body := serveHealth(t, h, "/healthz/detailed")
		assert.Equal(t, http.StatusOK, rec.Code)

		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "missing client id, client secret", checks["provider_config"])
	})

	t.Run("shutting down", func(t *testing.T) {
		h := NewHealthChecker(nil, "v1")
		h.SetShuttingDown()

		rec, body := serveHealth(t, h, "/healthz/detailed")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "shutting down", body["status"])
	})
}
