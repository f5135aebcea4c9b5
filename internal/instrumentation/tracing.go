package instrumentation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every calrelay span.
const TracerName = "github.com/teemow/calrelay"

// Span attribute keys.
const (
	SpanAttrRoute       = "calrelay.route"
	SpanAttrService     = "google.service"
	SpanAttrOperation   = "google.operation"
	SpanAttrCalendarID  = "calendar.id"
	SpanAttrWindowStart = "calendar.window_start"
	SpanAttrWindowEnd   = "calendar.window_end"
	SpanAttrEventCount  = "calendar.event_count"
)

func startSpan(ctx context.Context, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...))
}

// StartRouteSpan starts the server span "http.<route>" for one relay route.
func StartRouteSpan(ctx context.Context, route string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{attribute.String(SpanAttrRoute, route)}, attrs...)
	return startSpan(ctx, "http."+route, trace.SpanKindServer, attrs)
}

// StartGoogleAPISpan starts the client span "google.<service>.<operation>".
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)
	return startSpan(ctx, "google."+service+"."+operation, trace.SpanKindClient, attrs)
}

// CalendarWindowAttrs describes a listing of calendarID between start
// (inclusive) and end (exclusive).
func CalendarWindowAttrs(calendarID string, start, end time.Time) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SpanAttrCalendarID, calendarID),
		attribute.String(SpanAttrWindowStart, start.Format(time.RFC3339)),
		attribute.String(SpanAttrWindowEnd, end.Format(time.RFC3339)),
	}
}

// EndSpan sets the span status from err and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// SetSpanError marks the span failed. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SpanIDs returns the hex trace and span ids of the span in ctx, or two
// empty strings when there is none.
func SpanIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
