package google

import (
	"fmt"
	"strings"
)

// ConfigurationError indicates that provider credentials or the base URL are
// not configured.
type ConfigurationError struct {
	Missing []string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("google oauth is not configured: missing %s", strings.Join(e.Missing, ", "))
}

// ExchangeError indicates that an authorization code could not be exchanged
// for tokens. The code may be invalid, expired or already used, or the token
// endpoint may be unreachable; the cause is not classified further.
type ExchangeError struct {
	Err error
}

// Error implements the error interface
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("failed to exchange auth code: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *ExchangeError) Unwrap() error {
	return e.Err
}
