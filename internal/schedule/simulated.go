package schedule

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// Simulated fakes occupancy: every open day inside the window starting today
// has 30-60% of its grid booked.  Draws are seeded from Seed and the date so
// the calendar, the time grid and the proxy all see the same picture.
type Simulated struct {
	Seed       int64
	WindowDays int
	Now        func() time.Time
}

// NewSimulated returns a Simulated source covering windowDays days.
func NewSimulated(seed int64, windowDays int, now func() time.Time) *Simulated {
	if windowDays < 1 {
		windowDays = 30
	}
	return &Simulated{Seed: seed, WindowDays: windowDays, Now: now}
}

// Booked returns the taken starts of a day.  Days before today or past the
// window are left empty.
func (s *Simulated) Booked(day time.Time) map[Clock]bool {
	d := DateOf(day)
	today := DateOf(nowOr(s.Now).In(d.Location()))
	if d.Before(today) || !d.Before(today.AddDate(0, 0, s.WindowDays)) {
		return nil
	}
	all := Grid(d, 0)
	if len(all) == 0 {
		return nil
	}
	r := rand.New(rand.NewPCG(uint64(s.Seed), dateSeed(d)))
	n := int(float64(len(all)) * (0.3 + r.Float64()*0.3))
	booked := make(map[Clock]bool, n)
	for i := 0; i < n; i++ {
		// drawn with replacement; repeats leave the day a little emptier
		booked[all[r.IntN(len(all))]] = true
	}
	return booked
}

// Slots implements Source.
func (s *Simulated) Slots(_ context.Context, day time.Time, serviceID string) ([]Slot, error) {
	booked := s.Booked(day)
	return buildSlots(DateOf(day), serviceID, nowOr(s.Now), func(c Clock) bool { return booked[c] }), nil
}

func dateSeed(d time.Time) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(DateKey(d)))
	return h.Sum64()
}
