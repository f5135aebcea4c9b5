package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrStep      = "step"
)

// Histogram bucket boundaries. Durations are in seconds.
var (
	httpDurationBuckets   = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}
	googleDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	eventCountBuckets     = []float64{0, 1, 5, 10, 25, 50, 100, 250}
)

// Metrics records the relay's HTTP, Google API, OAuth and listing metrics.
// The zero value and a nil *Metrics record nothing.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	oauthAuthTotal         metric.Int64Counter
	calendarEventsReturned metric.Int64Histogram

	// detailedLabels keeps raw request paths as labels.
	detailedLabels bool
}

// instruments collects the first error while the instruments of a Metrics
// are created.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("failed to create %s counter: %w", name, err)
	}
	return c
}

func (in *instruments) seconds(name, desc string, buckets []float64) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...))
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("failed to create %s histogram: %w", name, err)
	}
	return h
}

func (in *instruments) sizes(name, desc, unit string, buckets []float64) metric.Int64Histogram {
	h, err := in.meter.Int64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(buckets...))
	if err != nil && in.err == nil {
		in.err = fmt.Errorf("failed to create %s histogram: %w", name, err)
	}
	return h
}

// NewMetrics creates the relay's instruments on meter. With detailedLabels
// the raw request path is kept as the path label of HTTP metrics.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	in := &instruments{meter: meter}
	m := &Metrics{
		httpRequestsTotal: in.counter("http_requests_total",
			"Total number of HTTP requests", "{request}"),
		httpRequestDuration: in.seconds("http_request_duration_seconds",
			"HTTP request duration in seconds", httpDurationBuckets),
		googleAPIOperationsTotal: in.counter("google_api_operations_total",
			"Total number of Google API operations", "{operation}"),
		googleAPIOperationDuration: in.seconds("google_api_operation_duration_seconds",
			"Google API operation duration in seconds", googleDurationBuckets),
		oauthAuthTotal: in.counter("oauth_auth_total",
			"Total number of OAuth authorization steps by step and result", "{attempt}"),
		calendarEventsReturned: in.sizes("calendar_events_returned",
			"Number of events returned per weekly listing", "{event}", eventCountBuckets),
		detailedLabels: detailedLabels,
	}
	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
// Unless detailed labels are enabled the path is normalized with RoutePath.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	if !m.detailedLabels {
		path = RoutePath(path)
	}

	opt := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, opt)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), opt)
}

// RecordGoogleAPIOperation records one call to Google. Status is
// StatusSuccess or StatusError.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	opt := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, opt)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), opt)
}

// RecordOAuthAuth records one step of the authorization flow.
// Step is "authorize" or "callback"; result is one of the OAuthResult values.
func (m *Metrics) RecordOAuthAuth(ctx context.Context, step, result string) {
	if m == nil || m.oauthAuthTotal == nil {
		return
	}

	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStep, step),
		attribute.String(attrResult, result),
	))
}

// RecordEventsReturned records the size of a weekly listing.
func (m *Metrics) RecordEventsReturned(ctx context.Context, count int) {
	if m == nil || m.calendarEventsReturned == nil {
		return
	}

	m.calendarEventsReturned.Record(ctx, int64(count))
}
