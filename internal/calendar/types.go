package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// dateLayout is the layout of all-day event dates.
const dateLayout = "2006-01-02"

// CalendarEvent is the display projection of a provider event.
type CalendarEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	IsAllDay    bool       `json:"isAllDay"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Description string     `json:"description,omitempty"`
}

// toCalendarEvent converts a Google Calendar event to a CalendarEvent.
// All-day dates are placed at midnight in loc. Times that are missing or
// cannot be parsed are left nil.
func toCalendarEvent(event *calendar.Event, loc *time.Location) CalendarEvent {
	if event == nil {
		return CalendarEvent{}
	}

	ce := CalendarEvent{
		ID:          event.Id,
		Title:       event.Summary,
		Description: event.Description,
	}

	// An event is all-day when its start carries a date but no date-time
	if event.Start != nil && event.Start.DateTime == "" && event.Start.Date != "" {
		ce.IsAllDay = true
	}

	ce.StartTime = parseEventDateTime(event.Start, loc)
	ce.EndTime = parseEventDateTime(event.End, loc)

	return ce
}

func parseEventDateTime(edt *calendar.EventDateTime, loc *time.Location) *time.Time {
	if edt == nil {
		return nil
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return &t
		}
		return nil
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation(dateLayout, edt.Date, loc); err == nil {
			return &t
		}
	}
	return nil
}
