package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/calrelay/internal/logging"
)

// Audit actions.
const (
	AuditActionAuthorize  = "authorize"
	AuditActionCallback   = "callback"
	AuditActionListEvents = "list_events"
	AuditActionUserInfo   = "user_info"
)

// AuthEvent captures one relay action for audit logging: a consent URL
// being issued, a callback being handled, the signed-in account being looked
// up, or a week of events being listed.
//
// # Privacy Considerations
//
// UserEmail contains PII and is only known when the relay looked it up.
// Unless the audit logger is configured with IncludePII, only the hashed
// identifier and the email domain are logged. Tokens are never recorded.
type AuthEvent struct {
	Action string

	// UserEmail is optional.
	UserEmail string

	// Reason is the short error code handed to the frontend, if any.
	Reason string

	RequestID string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewAuthEvent creates a new AuthEvent with timing started.
// Call Complete when the action finishes.
func NewAuthEvent(action string) *AuthEvent {
	return &AuthEvent{
		Action:    action,
		StartTime: time.Now(),
	}
}

// WithUser sets the user identity.
func (e *AuthEvent) WithUser(email string) *AuthEvent {
	e.UserEmail = email
	return e
}

// WithReason sets the error code reported to the frontend.
func (e *AuthEvent) WithReason(reason string) *AuthEvent {
	e.Reason = reason
	return e
}

// WithContext extracts the request id and trace context from ctx.
func (e *AuthEvent) WithContext(ctx context.Context) *AuthEvent {
	e.RequestID = logging.RequestIDFromContext(ctx)
	e.TraceID, e.SpanID = SpanIDs(ctx)
	return e
}

// Complete marks the action as completed and calculates duration.
func (e *AuthEvent) Complete(success bool, err error) *AuthEvent {
	e.Duration = time.Since(e.StartTime)
	e.Success = success
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// UserDomain returns the domain portion of the user's email.
func (e *AuthEvent) UserDomain() string {
	return ExtractUserDomain(e.UserEmail)
}

// Status returns "success" or "error" based on the Success field.
func (e *AuthEvent) Status() string {
	if e.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for the event. When includePII is false
// the email is replaced by its hash and domain.
func (e *AuthEvent) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", e.Action),
		slog.String(logging.KeyStatus, e.Status()),
		slog.Duration(logging.KeyDuration, e.Duration),
	}

	if e.UserEmail != "" {
		if includePII {
			attrs = append(attrs, slog.String("user", e.UserEmail))
		} else {
			attrs = append(attrs,
				logging.UserHash(e.UserEmail),
				slog.String("user_domain", e.UserDomain()))
		}
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}
	if e.RequestID != "" {
		attrs = append(attrs, slog.String(logging.KeyRequestID, e.RequestID))
	}
	if e.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", e.TraceID))
	}
	if e.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", e.SpanID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, e.Error))
	}

	return attrs
}

// AuditLogger writes AuthEvents to a dedicated slog.Logger.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes users.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// Log writes e. Successful actions log at info, failures at warn.
// A nil AuditLogger discards the event.
func (al *AuditLogger) Log(e *AuthEvent) {
	if al == nil || !al.enabled || e == nil {
		return
	}

	attrs := e.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if e.Success {
		al.logger.Info("auth_audit", args...)
	} else {
		al.logger.Warn("auth_audit", args...)
	}
}
