// Package calendar lists the current week's events from the Google Calendar
// API and maps them into the display model served by the relay.
//
// The week is computed from the local clock as [most recent Sunday 00:00,
// following Sunday 00:00). Listing expands recurring events into their
// instances and orders results by start time.
//
// Example usage:
//
//	window := calendar.CurrentWeek(time.Now())
//	events, err := calendar.ListEventsInWindow(ctx, cfg, accessToken, window)
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
