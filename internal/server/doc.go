// Package server implements the calrelay HTTP surface.
//
// # Relay endpoints
//
//   - GET /api/auth/google redirects to the Google consent screen
//   - GET /api/auth/callback exchanges the authorization code and redirects
//     back to the frontend root with the tokens (or an error code) in the query
//   - GET /api/calendar lists the current week's events as JSON
//   - GET /api/calendar/ics exports the same events as iCalendar
//
// # Views
//
// The landing page (/) and the weekly calendar (/calendar) are rendered from
// embedded html/template files. Tokens travel in query parameters between
// the pages; nothing is stored on the server.
//
// # Operations
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed on the relay
// listener. MetricsServer serves /metrics on a dedicated port. Every request
// gets a request id (X-Request-ID) and is recorded in the HTTP metrics.
//
// Provider configuration is resolved per request through a ConfigSource, so
// missing credentials surface as request errors instead of startup failures.
package server
