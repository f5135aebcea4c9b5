package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// Always use these helpers when recording metrics with user identifiers
// or request paths.

// knownRoutes are the paths served by calrelay. Anything else is reported as "other".
var knownRoutes = map[string]bool{
	"/":                    true,
	"/calendar":            true,
	"/api/auth/google":     true,
	"/api/auth/callback":   true,
	"/api/calendar":        true,
	"/api/calendar/ics":    true,
	"/healthz":             true,
	"/healthz/detailed":    true,
	"/readyz":              true,
	"/favicon.ico":         true,
	"/static/calrelay.css": true,
}

// RoutePathOther is the path label used for unknown routes.
const RoutePathOther = "other"

// RoutePath maps a request path to a bounded label value.
//
// Example:
//
//	RoutePath("/api/calendar")       // "/api/calendar"
//	RoutePath("/api/calendar/")      // "/api/calendar"
//	RoutePath("/wp-login.php")       // "other"
func RoutePath(path string) string {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if knownRoutes[path] {
		return path
	}
	return RoutePathOther
}

// ExtractUserDomain extracts the domain part from an email address.
// This reduces cardinality by using the domain instead of the full email.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// Operation types for Google API metrics.
// Status, OAuth, and Service constants are defined in config.go.
const (
	OperationList     = "list"
	OperationExchange = "exchange"
	OperationUserInfo = "userinfo"
)
