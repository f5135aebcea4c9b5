package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailedLabels bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailedLabels)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not found", name)
	return metricdata.Metrics{}
}

// sumByAttr returns the counter value per value of the given attribute key.
func sumByAttr(t *testing.T, m metricdata.Metrics, key string) map[string]int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is %T, want Sum[int64]", m.Name, m.Data)
	}
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(key))
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordHTTPRequest(ctx, "GET", "/api/calendar", 200, 100*time.Millisecond)
	m.RecordHTTPRequest(ctx, "GET", "/api/calendar", 400, 5*time.Millisecond)
	m.RecordHTTPRequest(ctx, "GET", "/wp-login.php", 404, time.Millisecond)

	got := sumByAttr(t, collect(t, reader, "http_requests_total"), attrPath)
	if got["/api/calendar"] != 2 {
		t.Errorf("/api/calendar count = %d, want 2", got["/api/calendar"])
	}
	if got[RoutePathOther] != 1 {
		t.Errorf("other count = %d, want 1", got[RoutePathOther])
	}

	byStatus := sumByAttr(t, collect(t, reader, "http_requests_total"), attrStatus)
	if byStatus["400"] != 1 {
		t.Errorf("status 400 count = %d, want 1", byStatus["400"])
	}
}

func TestMetrics_RecordHTTPRequest_DetailedLabels(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, true)

	m.RecordHTTPRequest(ctx, "GET", "/wp-login.php", 404, time.Millisecond)

	got := sumByAttr(t, collect(t, reader, "http_requests_total"), attrPath)
	if got["/wp-login.php"] != 1 {
		t.Errorf("raw path count = %d, want 1", got["/wp-login.php"])
	}
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, 200*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceOAuth2, OperationExchange, StatusError, 500*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceOAuth2, OperationUserInfo, StatusSuccess, 100*time.Millisecond)

	got := sumByAttr(t, collect(t, reader, "google_api_operations_total"), attrService)
	if got[ServiceCalendar] != 1 || got[ServiceOAuth2] != 2 {
		t.Errorf("operations by service = %v", got)
	}

	hist := collect(t, reader, "google_api_operation_duration_seconds")
	if _, ok := hist.Data.(metricdata.Histogram[float64]); !ok {
		t.Errorf("duration metric is %T, want Histogram[float64]", hist.Data)
	}
}

func TestMetrics_RecordOAuthAuth(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordOAuthAuth(ctx, OAuthStepAuthorize, OAuthResultSuccess)
	m.RecordOAuthAuth(ctx, OAuthStepCallback, OAuthResultSuccess)
	m.RecordOAuthAuth(ctx, OAuthStepCallback, OAuthResultDenied)
	m.RecordOAuthAuth(ctx, OAuthStepCallback, OAuthResultMissingCode)

	byStep := sumByAttr(t, collect(t, reader, "oauth_auth_total"), attrStep)
	if byStep[OAuthStepAuthorize] != 1 || byStep[OAuthStepCallback] != 3 {
		t.Errorf("oauth attempts by step = %v", byStep)
	}
	byResult := sumByAttr(t, collect(t, reader, "oauth_auth_total"), attrResult)
	if byResult[OAuthResultSuccess] != 2 {
		t.Errorf("successful attempts = %d, want 2", byResult[OAuthResultSuccess])
	}
}

func TestMetrics_RecordEventsReturned(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordEventsReturned(ctx, 0)
	m.RecordEventsReturned(ctx, 7)

	hist, ok := collect(t, reader, "calendar_events_returned").Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatal("expected Histogram[int64]")
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	if hist.DataPoints[0].Count != 2 || hist.DataPoints[0].Sum != 7 {
		t.Errorf("count = %d sum = %d, want 2 and 7", hist.DataPoints[0].Count, hist.DataPoints[0].Sum)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()
	m := &Metrics{}

	// Should not panic
	m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceCalendar, OperationList, StatusSuccess, time.Millisecond)
	m.RecordOAuthAuth(ctx, OAuthStepCallback, OAuthResultFailure)
	m.RecordEventsReturned(ctx, 3)

	var nilMetrics *Metrics
	nilMetrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	nilMetrics.RecordOAuthAuth(ctx, OAuthStepAuthorize, OAuthResultSuccess)
}

func TestMetrics_FromDisabledProvider(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	// Should not panic
	provider.Metrics().RecordHTTPRequest(context.Background(), "GET", "/", 200, time.Millisecond)
}
