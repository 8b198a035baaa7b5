package domain

import "time"

// DateLayout is the calendar-day format used in logs, queries and API payloads
const DateLayout = "2006-01-02"

// DayOf truncates t to its UTC calendar day
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b (b - a)
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}

// EndOfDay returns the last representable instant of t's UTC calendar day
func EndOfDay(t time.Time) time.Time {
	return DayOf(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
