// Package schedule models the practice's opening hours and the grid of
// bookable start times, and provides the availability sources the booking
// widget and the proxy read from.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidClock is returned for start times that are not H:MM or HH:MM.
	ErrInvalidClock = errors.New("invalid time format")
	// ErrInvalidDate is returned for dates that are not ISO-8601.
	ErrInvalidDate = errors.New("invalid date format")
)

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Clock is a wall-clock start time within a day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "9:30" or "09:30".
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if !clockPattern.MatchString(s) {
		return Clock{}, ErrInvalidClock
	}
	hh, mm, _ := strings.Cut(s, ":")
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	return Clock{Hour: h, Minute: m}, nil
}

// ValidClock reports whether s would parse.
func ValidClock(s string) bool { return clockPattern.MatchString(strings.TrimSpace(s)) }

// String renders the 24-hour form used on the wire, e.g. "14:00".
func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Label renders the 12-hour form shown to visitors, e.g. "2:00 PM".
func (c Clock) Label() string {
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	ampm := "AM"
	if c.Hour >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, ampm)
}

// Minutes is the offset from midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

// On places the clock on the given day, in the day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateKey formats a day as "2006-01-02".
func DateKey(t time.Time) string { return t.Format(time.DateOnly) }

// ParseDate accepts an ISO-8601 calendar date or an RFC 3339 timestamp and
// returns midnight of that day in loc.  Timestamps are converted to loc first.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	if d, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(ts.In(loc)), nil
	}
	return time.Time{}, ErrInvalidDate
}
