package reminder

import "time"

// Window is a half-open local-calendar-day interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StartOfDay truncates t to local midnight using calendar components, so a
// daylight-saving transition never shifts the boundary.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// WindowsFor computes the "today" and "tomorrow" windows relative to now.
// Day boundaries use AddDate, not 24h durations, so each window spans exactly
// one calendar day even across DST.
func WindowsFor(now time.Time) (today, tomorrow Window) {
	start := StartOfDay(now)
	next := start.AddDate(0, 0, 1)

	today = Window{Start: start, End: next}
	tomorrow = Window{Start: next, End: start.AddDate(0, 0, 2)}
	return today, tomorrow
}

// DaysUntil returns the calendar-day difference between due and ref in ref's
// location. Both instants are normalized to UTC noon of their calendar date
// before subtracting, which keeps 23- and 25-hour DST days from producing
// off-by-one offsets.
func DaysUntil(due, ref time.Time) int {
	loc := ref.Location()

	y1, m1, d1 := due.In(loc).Date()
	y2, m2, d2 := ref.In(loc).Date()

	a := time.Date(y1, m1, d1, 12, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 12, 0, 0, 0, time.UTC)

	return int(a.Sub(b).Hours() / 24)
}
