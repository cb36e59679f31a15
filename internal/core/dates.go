package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when reading event_date and timestamp
// columns. Exports have used ISO dates, ISO timestamps and US-style dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
}

var weekdays = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var monthAbbrev = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseDate parses a date or timestamp using the known export layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MonthKey returns the YYYY-MM bucket for t.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// WeekdayName returns the English day name using a Sunday-first week.
func WeekdayName(t time.Time) string {
	return weekdays[int(t.Weekday())]
}

// MonthLabel renders a YYYY-MM key as "Jun 24". Keys that do not look like
// a month key are returned unchanged.
func MonthLabel(key string) string {
	if len(key) < 7 || key[4] != '-' {
		return key
	}
	m, err := strconv.Atoi(key[5:7])
	if err != nil || m < 1 || m > 12 {
		return key
	}
	return monthAbbrev[m-1] + " " + key[2:4]
}

// ShortDate renders t as "Jan 2".
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%s %d", monthAbbrev[int(t.Month())-1], t.Day())
}
