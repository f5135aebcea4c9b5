package calendar

import "time"

// WeekWindow is a half-open time range [Start, End).
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// CurrentWeek returns the week containing now: from the most recent Sunday at
// 00:00:00 in now's location up to the following Sunday at 00:00:00.
//
// Days are counted on the calendar rather than as 24h durations, so a DST
// change inside the week does not move the end boundary off midnight.
func CurrentWeek(now time.Time) WeekWindow {
	y, m, d := now.Date()
	loc := now.Location()
	start := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
	return WeekWindow{
		Start: start,
		End:   start.AddDate(0, 0, 7),
	}
}

// Contains reports whether t lies in the window.
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
