package schedule

import (
	"context"
	"time"
)

// Exclusions blocks a small fixed set of starts: recurring weekly clocks and
// whole hours on specific dates.
type Exclusions struct {
	Weekly map[time.Weekday][]Clock
	Dates  map[string][]int // date key -> blocked hours
	Now    func() time.Time
}

// DefaultExclusions keeps Mondays at 2 PM free for the practice, plus two
// historical one-off blocks.
func DefaultExclusions(now func() time.Time) *Exclusions {
	return &Exclusions{
		Weekly: map[time.Weekday][]Clock{time.Monday: {{Hour: 14}}},
		Dates: map[string][]int{
			"2024-01-15": {14},
			"2024-01-16": {10},
		},
		Now: now,
	}
}

// Excluded reports whether c is blocked on day.
func (e *Exclusions) Excluded(day time.Time, c Clock) bool {
	for _, w := range e.Weekly[day.Weekday()] {
		if w == c {
			return true
		}
	}
	for _, h := range e.Dates[DateKey(day)] {
		if h == c.Hour {
			return true
		}
	}
	return false
}

// Slots implements Source.
func (e *Exclusions) Slots(_ context.Context, day time.Time, serviceID string) ([]Slot, error) {
	d := DateOf(day)
	return buildSlots(d, serviceID, nowOr(e.Now), func(c Clock) bool { return e.Excluded(d, c) }), nil
}
