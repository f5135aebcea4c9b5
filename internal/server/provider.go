package server

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calrelay/internal/calendar"
	"github.com/teemow/calrelay/internal/google"
	"github.com/teemow/calrelay/internal/instrumentation"
)

// Provider is the upstream identity and calendar provider used by the relay.
type Provider interface {
	// Config returns the current provider configuration. A non-nil error
	// is a *google.ConfigurationError; the returned Config still carries
	// whatever settings were resolved.
	Config() (google.Config, error)

	AuthCodeURL(ctx context.Context) (string, error)
	Exchange(ctx context.Context, code string) (*google.TokenSet, error)
	UserInfo(ctx context.Context, accessToken string) (*google.UserInfo, error)
	ListEvents(ctx context.Context, accessToken string, window calendar.WeekWindow) ([]calendar.CalendarEvent, error)
}

// ConfigSource resolves the provider configuration. It is called once per
// operation so configuration changes apply without a restart.
type ConfigSource func() (google.Config, error)

// GoogleProvider implements Provider against Google. Every outbound call is
// traced and recorded in the Google API metrics.
type GoogleProvider struct {
	source  ConfigSource
	metrics *instrumentation.Metrics
}

// NewGoogleProvider creates a GoogleProvider. metrics may be nil.
func NewGoogleProvider(source ConfigSource, metrics *instrumentation.Metrics) *GoogleProvider {
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	return &GoogleProvider{source: source, metrics: metrics}
}

// Config implements Provider.
func (p *GoogleProvider) Config() (google.Config, error) {
	return p.source()
}

// AuthCodeURL implements Provider. It performs no I/O.
func (p *GoogleProvider) AuthCodeURL(_ context.Context) (string, error) {
	cfg, err := p.source()
	if err != nil {
		return "", err
	}
	return google.AuthCodeURL(cfg)
}

// Exchange implements Provider.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*google.TokenSet, error) {
	cfg, err := p.source()
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceOAuth2, instrumentation.OperationExchange)
	start := time.Now()
	tokens, err := google.Exchange(ctx, cfg, code)
	p.record(ctx, instrumentation.ServiceOAuth2, instrumentation.OperationExchange, start, err)
	instrumentation.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// UserInfo implements Provider.
func (p *GoogleProvider) UserInfo(ctx context.Context, accessToken string) (*google.UserInfo, error) {
	cfg, err := p.source()
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceOAuth2, instrumentation.OperationUserInfo)
	start := time.Now()
	info, err := google.FetchUserInfo(ctx, cfg, accessToken)
	p.record(ctx, instrumentation.ServiceOAuth2, instrumentation.OperationUserInfo, start, err)
	instrumentation.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ListEvents implements Provider.
func (p *GoogleProvider) ListEvents(ctx context.Context, accessToken string, window calendar.WeekWindow) ([]calendar.CalendarEvent, error) {
	if accessToken == "" {
		return nil, calendar.ErrAccessTokenRequired
	}

	cfg, err := p.source()
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList,
		instrumentation.CalendarWindowAttrs(calendar.PrimaryCalendarID, window.Start, window.End)...)
	start := time.Now()
	events, err := calendar.ListEventsInWindow(ctx, cfg, accessToken, window)
	p.record(ctx, instrumentation.ServiceCalendar, instrumentation.OperationList, start, err)
	if err == nil {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrEventCount, len(events)))
	}
	instrumentation.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	p.metrics.RecordEventsReturned(ctx, len(events))
	return events, nil
}

func (p *GoogleProvider) record(ctx context.Context, service, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	p.metrics.RecordGoogleAPIOperation(ctx, service, operation, status, time.Since(start))
}
