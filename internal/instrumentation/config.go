package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvServiceName       = "OTEL_SERVICE_NAME"
	EnvServiceInstanceID = "OTEL_SERVICE_INSTANCE_ID"
	EnvEnabled           = "INSTRUMENTATION_ENABLED"
	EnvMetricsExporter   = "METRICS_EXPORTER"
	EnvTracingExporter   = "TRACING_EXPORTER"
	EnvOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	EnvTraceSamplingRate = "OTEL_TRACES_SAMPLER_ARG"
	EnvDetailedLabels    = "METRICS_DETAILED_LABELS"
	EnvAuditEnabled      = "AUDIT_LOGGING_ENABLED"
	EnvAuditIncludePII   = "AUDIT_LOGGING_INCLUDE_PII"
)

// DefaultServiceName is reported when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "calrelay"

// Exporter types
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is the push interval of the OTLP and stdout metric exporters.
const DefaultMetricInterval = 10 * time.Second

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname.
	ServiceInstanceID string

	// Enabled switches metrics and tracing on (default: true).
	Enabled bool

	// MetricsExporter is "prometheus" (default), "otlp" or "stdout".
	MetricsExporter string

	// TracingExporter is "otlp", "stdout" or "none" (default).
	TracingExporter string

	// OTLPEndpoint is the collector address without scheme, e.g. "localhost:4318".
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP. Development only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio sampler argument (default: 0.1).
	TraceSamplingRate float64

	// DetailedLabels controls whether the raw request path is used as the
	// http_requests_total path label. When false (default), unknown paths
	// are collapsed to "other".
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool

	// IncludePII logs full email addresses instead of anonymized user hashes.
	IncludePII bool
}

// DefaultConfig returns the configuration taken from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from getenv. Unset or unparseable values
// fall back to the defaults.
func ConfigFromEnv(getenv func(string) string) Config {
	e := envReader(getenv)
	return Config{
		ServiceName:       e.string(EnvServiceName, DefaultServiceName),
		ServiceVersion:    "unknown",
		ServiceInstanceID: e.string(EnvServiceInstanceID, ""),
		Enabled:           e.bool(EnvEnabled, true),
		MetricsExporter:   e.string(EnvMetricsExporter, ExporterPrometheus),
		TracingExporter:   e.string(EnvTracingExporter, ExporterNone),
		OTLPEndpoint:      e.string(EnvOTLPEndpoint, ""),
		OTLPInsecure:      e.bool(EnvOTLPInsecure, false),
		TraceSamplingRate: e.float(EnvTraceSamplingRate, 0.1),
		DetailedLabels:    e.bool(EnvDetailedLabels, false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    e.bool(EnvAuditEnabled, true),
			IncludePII: e.bool(EnvAuditIncludePII, false),
		},
	}
}

// Validate checks exporter names, the sampling rate and that OTLP exporters
// have an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" {
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		}
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}

	return nil
}

// envReader reads typed values with defaults.
type envReader func(string) string

func (e envReader) string(key, def string) string {
	if v := e(key); v != "" {
		return v
	}
	return def
}

func (e envReader) bool(key string, def bool) bool {
	v, err := strconv.ParseBool(e(key))
	if err != nil {
		return def
	}
	return v
}

func (e envReader) float(key string, def float64) float64 {
	v, err := strconv.ParseFloat(e(key), 64)
	if err != nil {
		return def
	}
	return v
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess     = "success"
	OAuthResultFailure     = "failure"
	OAuthResultDenied      = "denied"
	OAuthResultMissingCode = "missing_code"

	OAuthStepAuthorize = "authorize"
	OAuthStepCallback  = "callback"

	ServiceCalendar = "calendar"
	ServiceOAuth2   = "oauth2"
)
