package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/calrelay/internal/google"
	"github.com/teemow/calrelay/internal/google/googletest"
)

func testConfig(srv *googletest.Server) google.Config {
	return google.Config{
		ClientID:     googletest.ClientID,
		ClientSecret: googletest.ClientSecret,
		BaseURL:      "http://localhost:3000",
		Endpoint:     srv.Endpoint(),
		APIBaseURL:   srv.URL,
	}
}

func timedEvent(id, summary string, start, end time.Time) *calendar.Event {
	return &calendar.Event{
		Id:      id,
		Summary: summary,
		Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
}

func TestToCalendarEvent_Nil(t *testing.T) {
	ev := toCalendarEvent(nil, time.UTC)
	assert.Equal(t, CalendarEvent{}, ev)
}

func TestToCalendarEvent(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name      string
		event     *calendar.Event
		wantAll   bool
		wantStart string
		wantEnd   string
	}{
		{
			name: "timed event",
			event: &calendar.Event{
				Id:      "a",
				Summary: "Standup",
				Start:   &calendar.EventDateTime{DateTime: "2024-01-10T09:00:00+09:00"},
				End:     &calendar.EventDateTime{DateTime: "2024-01-10T09:15:00+09:00"},
			},
			wantStart: "2024-01-10T09:00:00+09:00",
			wantEnd:   "2024-01-10T09:15:00+09:00",
		},
		{
			name: "all-day event",
			event: &calendar.Event{
				Id:    "b",
				Start: &calendar.EventDateTime{Date: "2024-01-08"},
				End:   &calendar.EventDateTime{Date: "2024-01-09"},
			},
			wantAll:   true,
			wantStart: "2024-01-08T00:00:00+09:00",
			wantEnd:   "2024-01-09T00:00:00+09:00",
		},
		{
			name: "unparseable start",
			event: &calendar.Event{
				Id:    "c",
				Start: &calendar.EventDateTime{DateTime: "not-a-time"},
			},
		},
		{
			name:  "no times",
			event: &calendar.Event{Id: "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := toCalendarEvent(tt.event, tokyo)
			assert.Equal(t, tt.event.Id, ev.ID)
			assert.Equal(t, tt.event.Summary, ev.Title)
			assert.Equal(t, tt.wantAll, ev.IsAllDay)

			if tt.wantStart == "" {
				assert.Nil(t, ev.StartTime)
			} else {
				require.NotNil(t, ev.StartTime)
				assert.Equal(t, tt.wantStart, ev.StartTime.Format(time.RFC3339))
			}
			if tt.wantEnd == "" {
				assert.Nil(t, ev.EndTime)
			} else {
				require.NotNil(t, ev.EndTime)
				assert.Equal(t, tt.wantEnd, ev.EndTime.Format(time.RFC3339))
			}
		})
	}
}

func TestListEventsInWindow(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()
	srv.AddAccessToken("access-1", googletest.UserInfo{})

	window := CurrentWeek(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))

	// Stored out of order; instances of a weekly series appear individually
	srv.AddEvent("primary", timedEvent("late", "Review",
		time.Date(2024, 1, 12, 15, 0, 0, 0, time.UTC), time.Date(2024, 1, 12, 16, 0, 0, 0, time.UTC)))
	srv.AddEvent("primary", timedEvent("weekly_20240108", "Weekly sync",
		time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 8, 11, 0, 0, 0, time.UTC)))
	srv.AddEvent("primary", timedEvent("weekly_20240115", "Weekly sync",
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC)))
	srv.AddEvent("primary", timedEvent("last-week", "Old",
		time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 11, 0, 0, 0, time.UTC)))
	srv.AddEvent("other", timedEvent("elsewhere", "Other calendar",
		time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 9, 11, 0, 0, 0, time.UTC)))

	events, err := ListEventsInWindow(context.Background(), testConfig(srv), "access-1", window)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "weekly_20240108", events[0].ID)
	assert.Equal(t, "late", events[1].ID)

	queries := srv.EventsQueries()
	require.Len(t, queries, 1)
	q := queries[0]
	assert.Equal(t, "true", q.Get("singleEvents"))
	assert.Equal(t, "startTime", q.Get("orderBy"))
	assert.Equal(t, "2024-01-07T00:00:00Z", q.Get("timeMin"))
	assert.Equal(t, "2024-01-14T00:00:00Z", q.Get("timeMax"))
}

func TestListEventsInWindow_Empty(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()
	srv.AddAccessToken("access-1", googletest.UserInfo{})

	events, err := ListEventsInWindow(context.Background(), testConfig(srv), "access-1",
		CurrentWeek(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestListEventsInWindow_InvalidToken(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()

	_, err := ListEventsInWindow(context.Background(), testConfig(srv), "expired",
		CurrentWeek(time.Now()))

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Len(t, srv.EventsQueries(), 0)
}

func TestListEventsInWindow_MissingToken(t *testing.T) {
	_, err := ListEventsInWindow(context.Background(), google.Config{}, "", CurrentWeek(time.Now()))
	assert.True(t, errors.Is(err, ErrAccessTokenRequired))
}

func TestListEventsInWindow_Unreachable(t *testing.T) {
	srv := googletest.NewServer()
	cfg := testConfig(srv)
	srv.Close()

	_, err := ListEventsInWindow(context.Background(), cfg, "access-1", CurrentWeek(time.Now()))
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}
