package instrumentation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, config Config) *Provider {
	t.Helper()
	config.ServiceName = "calrelay-test"
	config.ServiceVersion = "1.0.0"

	provider, err := NewProvider(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewProvider_Disabled(t *testing.T) {
	provider := newTestProvider(t, Config{Enabled: false, MetricsExporter: "ignored"})

	assert.False(t, provider.Enabled())
	assert.NotNil(t, provider.Metrics())
	assert.Nil(t, provider.PrometheusHandler())
	assert.NoError(t, provider.Shutdown(context.Background()))

	// Recording on the no-op recorder must not panic.
	provider.Metrics().RecordOAuthAuth(context.Background(), OAuthStepCallback, OAuthResultSuccess)
}

func TestNewProvider_Prometheus(t *testing.T) {
	provider := newTestProvider(t, Config{
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})

	require.True(t, provider.Enabled())
	assert.Equal(t, "calrelay-test", provider.Config().ServiceName)

	handler := provider.PrometheusHandler()
	require.NotNil(t, handler)

	provider.Metrics().RecordHTTPRequest(context.Background(), http.MethodGet, "/api/calendar", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestNewProvider_Stdout(t *testing.T) {
	provider := newTestProvider(t, Config{
		Enabled:         true,
		MetricsExporter: ExporterStdout,
		TracingExporter: ExporterStdout,
	})

	assert.True(t, provider.Enabled())
	assert.Nil(t, provider.PrometheusHandler())
}

func TestNewProvider_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"metrics exporter", Config{MetricsExporter: "statsd", TracingExporter: ExporterNone}},
		{"tracing exporter", Config{MetricsExporter: ExporterPrometheus, TracingExporter: "jaeger"}},
		{"otlp tracing without endpoint", Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP}},
		{"otlp metrics without endpoint", Config{MetricsExporter: ExporterOTLP, TracingExporter: ExporterNone}},
		{"sampling rate", Config{MetricsExporter: ExporterPrometheus, TraceSamplingRate: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Enabled = true
			provider, err := NewProvider(context.Background(), tt.config)
			assert.Error(t, err)
			assert.Nil(t, provider)
		})
	}
}

func TestProvider_Shutdown(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:     "calrelay-test",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
	})
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))
}
