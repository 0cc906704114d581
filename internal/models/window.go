package models

import "time"

// Reporting periods accepted by the analytics endpoints.
const (
	PeriodWeek    = "week"
	PeriodMonth   = "month"
	PeriodAllTime = "all-time"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the window length in whole days, never below 1.
func (w Window) Days() int {
	days := int(w.End.Sub(w.Start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
