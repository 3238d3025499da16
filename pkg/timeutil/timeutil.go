// Package timeutil provides calendar-day utilities for streak and pacing math.
// All aggregation in EduHub Analytics is calendar-sensitive: a "day" is a date
// in the student's configured timezone, defaulting to UTC when unset.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DefaultLocation is used when a student has no configured timezone.
var DefaultLocation = time.UTC

// LoadLocation resolves an IANA timezone name, falling back to UTC on
// empty or unknown names. Aggregation must never fail because of a bad
// timezone string stored on a profile.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DefaultLocation
	}
	return loc
}

// StartOfDay returns the start of the day (00:00:00) for t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last instant of the day for t in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	return start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// DayKey returns the date of t in loc formatted as YYYY-MM-DD.
// Used to collect the distinct active days of a student.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(FormatDate)
}

// SameDay reports whether t1 and t2 fall on the same calendar day in loc.
func SameDay(t1, t2 time.Time, loc *time.Location) bool {
	a, b := t1.In(loc), t2.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// ConsecutiveDays reports whether t2 falls on the calendar day directly
// after t1 in loc.
func ConsecutiveDays(t1, t2 time.Time, loc *time.Location) bool {
	next := StartOfDay(t1, loc).AddDate(0, 0, 1)
	return SameDay(next, t2, loc)
}

// DaysBetween returns the number of whole calendar days from t1 to t2 in loc.
// The result is negative when t2 is before t1.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	a := StartOfDay(t1, loc)
	b := StartOfDay(t2, loc)
	// AddDate over Sub avoids drift across DST transitions.
	days := 0
	if b.After(a) {
		for a.Before(b) {
			a = a.AddDate(0, 0, 1)
			days++
		}
		return days
	}
	for b.Before(a) {
		b = b.AddDate(0, 0, 1)
		days--
	}
	return days
}

// DaysSince returns max(0, whole days from t to now) in loc.
func DaysSince(t time.Time, now time.Time, loc *time.Location) int {
	d := DaysBetween(t, now, loc)
	if d < 0 {
		return 0
	}
	return d
}

// IsToday reports whether t is on the same calendar day as now in loc.
func IsToday(t, now time.Time, loc *time.Location) bool {
	return SameDay(t, now, loc)
}

// IsYesterday reports whether t is on the calendar day before now in loc.
func IsYesterday(t, now time.Time, loc *time.Location) bool {
	yesterday := StartOfDay(now, loc).AddDate(0, 0, -1)
	return SameDay(t, yesterday, loc)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
)

// ParseDay parses a YYYY-MM-DD string as the start of that day in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, loc)
}
