package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	config := ConfigFromEnv(envFrom(nil))

	assert.Equal(t, DefaultServiceName, config.ServiceName)
	assert.True(t, config.Enabled)
	assert.Equal(t, ExporterPrometheus, config.MetricsExporter)
	assert.Equal(t, ExporterNone, config.TracingExporter)
	assert.Equal(t, 0.1, config.TraceSamplingRate)
	assert.False(t, config.DetailedLabels)
	assert.Equal(t, AuditLoggingConfig{Enabled: true}, config.AuditLogging)
	require.NoError(t, config.Validate())
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	config := ConfigFromEnv(envFrom(map[string]string{
		EnvServiceName:       "relay-staging",
		EnvServiceInstanceID: "relay-0",
		EnvEnabled:           "false",
		EnvMetricsExporter:   ExporterOTLP,
		EnvTracingExporter:   ExporterOTLP,
		EnvOTLPEndpoint:      "collector:4318",
		EnvOTLPInsecure:      "true",
		EnvTraceSamplingRate: "0.5",
		EnvDetailedLabels:    "1",
		EnvAuditEnabled:      "false",
		EnvAuditIncludePII:   "true",
	}))

	assert.Equal(t, Config{
		ServiceName:       "relay-staging",
		ServiceVersion:    "unknown",
		ServiceInstanceID: "relay-0",
		Enabled:           false,
		MetricsExporter:   ExporterOTLP,
		TracingExporter:   ExporterOTLP,
		OTLPEndpoint:      "collector:4318",
		OTLPInsecure:      true,
		TraceSamplingRate: 0.5,
		DetailedLabels:    true,
		AuditLogging:      AuditLoggingConfig{Enabled: false, IncludePII: true},
	}, config)
}

func TestConfigFromEnv_UnparseableFallsBack(t *testing.T) {
	config := ConfigFromEnv(envFrom(map[string]string{
		EnvEnabled:           "sometimes",
		EnvTraceSamplingRate: "lots",
		EnvAuditEnabled:      "",
	}))

	assert.True(t, config.Enabled)
	assert.Equal(t, 0.1, config.TraceSamplingRate)
	assert.True(t, config.AuditLogging.Enabled)
}

func TestDefaultConfig_ReadsProcessEnv(t *testing.T) {
	t.Setenv(EnvServiceName, "from-process")
	t.Setenv(EnvMetricsExporter, ExporterStdout)

	config := DefaultConfig()
	assert.Equal(t, "from-process", config.ServiceName)
	assert.Equal(t, ExporterStdout, config.MetricsExporter)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "prometheus without tracing",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name:   "empty exporters",
			config: Config{},
		},
		{
			name:   "otlp tracing with endpoint",
			config: Config{TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:    "negative sampling rate",
			config:  Config{TraceSamplingRate: -0.5},
			wantErr: "sampling rate",
		},
		{
			name:    "sampling rate above one",
			config:  Config{TraceSamplingRate: 1.5},
			wantErr: "sampling rate",
		},
		{
			name:    "unknown metrics exporter",
			config:  Config{MetricsExporter: "statsd"},
			wantErr: "invalid metrics exporter",
		},
		{
			name:    "unknown tracing exporter",
			config:  Config{TracingExporter: "jaeger"},
			wantErr: "invalid tracing exporter",
		},
		{
			name:    "otlp tracing without endpoint",
			config:  Config{TracingExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required when using OTLP tracing",
		},
		{
			name:    "otlp metrics without endpoint",
			config:  Config{MetricsExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required when using OTLP metrics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
