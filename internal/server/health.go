package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/teemow/calrelay/internal/google"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	// ready indicates whether the server is ready to receive traffic
	ready atomic.Bool
	// shuttingDown is set once graceful shutdown has begun
	shuttingDown atomic.Bool
	// config reports the provider configuration state in the detailed view
	config ConfigSource
	// startTime tracks when the server started
	startTime time.Time
	version   string
}

// NewHealthChecker creates a new HealthChecker. config may be nil.
func NewHealthChecker(config ConfigSource, version string) *HealthChecker {
	h := &HealthChecker{
		config:    config,
		startTime: time.Now(),
		version:   version,
	}
	// Server starts as ready by default
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server. A nil checker ignores it.
func (h *HealthChecker) SetReady(ready bool) {
	if h != nil {
		h.ready.Store(ready)
	}
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h != nil && h.ready.Load()
}

// SetShuttingDown marks the server as draining. Readiness fails from then on.
// A nil checker ignores it.
func (h *HealthChecker) SetShuttingDown() {
	if h != nil {
		h.shuttingDown.Store(true)
	}
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information.
type DetailedHealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
// Liveness probes indicate whether the process should be restarted.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// readinessChecks returns the readiness checks and whether all passed.
func (h *HealthChecker) readinessChecks() (map[string]string, bool) {
	checks := make(map[string]string)
	allOk := true

	if !h.IsReady() {
		checks["ready"] = healthStatusNotReady
		allOk = false
	} else {
		checks["ready"] = healthStatusOK
	}

	if h.shuttingDown.Load() {
		checks["shutdown"] = healthStatusShuttingDown
		allOk = false
	} else {
		checks["shutdown"] = healthStatusOK
	}

	return checks, allOk
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
// Missing provider credentials do not fail readiness; they surface per request.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, allOk := h.readinessChecks()
		response := HealthResponse{Checks: checks}

		if allOk {
			response.Status = healthStatusOK
			writeHealth(w, http.StatusOK, response)
			return
		}
		response.Status = healthStatusNotReady
		writeHealth(w, http.StatusServiceUnavailable, response)
	})
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed endpoint.
// It adds uptime, version and the provider configuration state.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, allOk := h.readinessChecks()
		checks["provider_config"] = h.configStatus()

		response := DetailedHealthResponse{
			Status:  healthStatusOK,
			Uptime:  time.Since(h.startTime).Truncate(time.Second).String(),
			Version: h.version,
			Checks:  checks,
		}

		status := http.StatusOK
		if !allOk {
			status = http.StatusServiceUnavailable
			response.Status = healthStatusNotReady
			if h.shuttingDown.Load() {
				response.Status = healthStatusShuttingDown
			}
		}

		writeHealth(w, status, response)
	})
}

func (h *HealthChecker) configStatus() string {
	if h.config == nil {
		return healthStatusOK
	}
	_, err := h.config()
	if err == nil {
		return healthStatusOK
	}
	var cfgErr *google.ConfigurationError
	if errors.As(err, &cfgErr) {
		return "missing " + strings.Join(cfgErr.Missing, ", ")
	}
	return err.Error()
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("GET /healthz", h.LivenessHandler())
	mux.Handle("GET /readyz", h.ReadinessHandler())
	mux.Handle("GET /healthz/detailed", h.DetailedHealthHandler())
}

func writeHealth(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
