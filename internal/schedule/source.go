package schedule

import (
	"context"
	"time"

	"github.com/recoverykneads/booking/internal/model"
)

// Slot is one start time on a day and whether it can still be booked.
type Slot struct {
	Clock     Clock  `json:"-"`
	Time      string `json:"time"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// Source yields the slots of a day for a service.  Implementations must
// return an empty list for closed days.
type Source interface {
	Slots(ctx context.Context, day time.Time, serviceID string) ([]Slot, error)
}

// RangeSource answers the days in [from, to) with a single lookup.  The
// result is keyed by DateKey; closed days may be missing.
type RangeSource interface {
	Source
	SlotsRange(ctx context.Context, from, to time.Time, serviceID string) (map[string][]Slot, error)
}

// CountAvailable counts the slots that can be booked.
func CountAvailable(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if s.Available {
			n++
		}
	}
	return n
}

// Find returns the slot starting at c.
func Find(slots []Slot, c Clock) (Slot, bool) {
	for _, s := range slots {
		if s.Clock == c {
			return s, true
		}
	}
	return Slot{}, false
}

// buildSlots lays the service-sized grid over day, marking starts that are
// not after now, or that taken reports, as unavailable.
func buildSlots(day time.Time, serviceID string, now time.Time, taken func(Clock) bool) []Slot {
	d := time.Duration(model.ServiceDuration(serviceID)) * time.Minute
	grid := Grid(day, d)
	out := make([]Slot, 0, len(grid))
	for _, c := range grid {
		out = append(out, Slot{
			Clock:     c,
			Time:      c.String(),
			Label:     c.Label(),
			Available: c.On(day).After(now) && !taken(c),
		})
	}
	return out
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
