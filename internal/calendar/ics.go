package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// icsProductID identifies calrelay as the producer of exported calendars.
const icsProductID = "-//calrelay//Weekly Calendar//EN"

// ToICS renders events as an iCalendar document. All-day events are written
// as DATE values, timed events in UTC. stamp is used as DTSTAMP for every event.
func ToICS(events []CalendarEvent, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for i, ev := range events {
		uid := ev.ID
		if uid == "" {
			uid = fmt.Sprintf("event-%d@calrelay", i)
		}

		vevent := cal.AddEvent(uid)
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(ev.Title)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}

		if ev.IsAllDay {
			if ev.StartTime != nil {
				vevent.SetAllDayStartAt(*ev.StartTime)
			}
			if ev.EndTime != nil {
				vevent.SetAllDayEndAt(*ev.EndTime)
			}
			continue
		}
		if ev.StartTime != nil {
			vevent.SetStartAt(*ev.StartTime)
		}
		if ev.EndTime != nil {
			vevent.SetEndAt(*ev.EndTime)
		}
	}

	return cal.Serialize()
}
