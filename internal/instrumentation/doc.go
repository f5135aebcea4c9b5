// Package instrumentation wires OpenTelemetry metrics and traces into
// calrelay and writes the audit log of authorization and listing actions.
//
// Metrics, served as Prometheus text on the metrics port or pushed over OTLP:
//
//	http_requests_total                    method, path, status
//	http_request_duration_seconds          method, path, status
//	google_api_operations_total            service, operation, status
//	google_api_operation_duration_seconds  service, operation, status
//	oauth_auth_total                       step, result
//	calendar_events_returned               (histogram of listing sizes)
//
// The path label is one of the relay routes or "other" (see RoutePath)
// unless METRICS_DETAILED_LABELS is set.
//
// Relay routes get server spans named http.<route>. Calls to Google get
// client spans named google.<service>.<operation>.
//
// ConfigFromEnv lists the environment variables; DefaultConfig reads them
// from the process:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
package instrumentation
