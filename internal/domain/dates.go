package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used on every wire and in storage.
const DateLayout = "2006-01-02"

// Day truncates t to the calendar day it falls on (in t's own location) and
// returns that day at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected format yyyy-MM-dd (example: 2026-01-27)", s)
	}
	return t, nil
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysInRange lists every calendar day from..to inclusive. It returns nil if
// to is before from.
func DaysInRange(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil
	}
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
