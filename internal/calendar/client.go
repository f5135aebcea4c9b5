package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/calrelay/internal/google"
)

// PrimaryCalendarID is the calendar listed by the relay.
const PrimaryCalendarID = "primary"

// ErrAccessTokenRequired is returned when a listing is requested without an
// access token.
var ErrAccessTokenRequired = errors.New("access token is required")

// FetchError indicates that events could not be listed, either because the
// access token was rejected or because the provider was unreachable.
type FetchError struct {
	Err error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to list events: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ListEventsInWindow lists the events of the primary calendar that intersect
// window, with recurring events expanded into instances and ordered by start
// time. It makes exactly one API request and never retries.
//
// All-day dates are interpreted in window.Start's location.
func ListEventsInWindow(ctx context.Context, cfg google.Config, accessToken string, window WeekWindow) ([]CalendarEvent, error) {
	if accessToken == "" {
		return nil, ErrAccessTokenRequired
	}

	svc, err := calendar.NewService(ctx, cfg.ServiceOptions(ctx, accessToken, "calendar/v3/")...)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("failed to create Calendar service: %w", err)}
	}

	events, err := svc.Events.List(PrimaryCalendarID).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	loc := window.Start.Location()
	result := make([]CalendarEvent, 0, len(events.Items))
	for _, event := range events.Items {
		result = append(result, toCalendarEvent(event, loc))
	}

	return result, nil
}
