package square

import (
	"context"
	"time"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
)

// NoAvailability is the summary text when nothing can be offered.
const NoAvailability = "Call for availability"

// AvailabilitySource reads bookable starts from Square and lays them over the
// opening-hours grid.  It implements schedule.Source.
type AvailabilitySource struct {
	client     *Client
	variations map[string]string
	Now        func() time.Time
}

// NewAvailabilitySource builds a source for the mapped services.
func NewAvailabilitySource(client *Client, variations map[string]string) *AvailabilitySource {
	return &AvailabilitySource{client: client, variations: variations, Now: time.Now}
}

// Slots marks a grid start available when Square offers it and it is still
// in the future.  Unmapped services have no slots available.
func (s *AvailabilitySource) Slots(ctx context.Context, day time.Time, serviceID string) ([]schedule.Slot, error) {
	day = schedule.DateOf(day)
	if !schedule.IsOpen(day) {
		return []schedule.Slot{}, nil
	}
	offered, err := s.offered(ctx, day, day.AddDate(0, 0, 1), serviceID)
	if err != nil {
		return nil, err
	}
	return s.layout(day, serviceID, offered[schedule.DateKey(day)]), nil
}

// SlotsRange answers every open day in [from, to) from one availability
// search.
func (s *AvailabilitySource) SlotsRange(ctx context.Context, from, to time.Time, serviceID string) (map[string][]schedule.Slot, error) {
	from, to = schedule.DateOf(from), schedule.DateOf(to)
	offered, err := s.offered(ctx, from, to, serviceID)
	if err != nil {
		return nil, err
	}
	out := map[string][]schedule.Slot{}
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		if schedule.IsOpen(day) {
			out[schedule.DateKey(day)] = s.layout(day, serviceID, offered[schedule.DateKey(day)])
		}
	}
	return out, nil
}

// offered groups the Square starts in [from, to) by day, in from's location.
func (s *AvailabilitySource) offered(ctx context.Context, from, to time.Time, serviceID string) (map[string]map[schedule.Clock]bool, error) {
	out := map[string]map[schedule.Clock]bool{}
	variation := s.variations[serviceID]
	if variation == "" {
		return out, nil
	}
	avails, err := s.client.SearchAvailability(ctx, from, to, variation)
	if err != nil {
		return nil, err
	}
	for _, a := range avails {
		t, err := time.Parse(time.RFC3339, a.StartAt)
		if err != nil {
			continue
		}
		t = t.In(from.Location())
		key := schedule.DateKey(t)
		if out[key] == nil {
			out[key] = map[schedule.Clock]bool{}
		}
		out[key][schedule.Clock{Hour: t.Hour(), Minute: t.Minute()}] = true
	}
	return out, nil
}

func (s *AvailabilitySource) layout(day time.Time, serviceID string, offered map[schedule.Clock]bool) []schedule.Slot {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	d := time.Duration(model.ServiceDuration(serviceID)) * time.Minute
	grid := schedule.Grid(day, d)
	out := make([]schedule.Slot, 0, len(grid))
	for _, c := range grid {
		out = append(out, schedule.Slot{
			Clock:     c,
			Time:      c.String(),
			Label:     c.Label(),
			Available: offered[c] && c.On(day).After(now),
		})
	}
	return out
}

// Summary is the short availability teaser for today.
type Summary struct {
	Success           bool   `json:"success"`
	AvailableSlots    int    `json:"availableSlots"`
	NextAvailableTime string `json:"nextAvailableTime"`
	TotalSlots        int    `json:"totalSlots"`
}

// NextAvailable summarises the rest of today for one service.
func (s *AvailabilitySource) NextAvailable(ctx context.Context, now time.Time, serviceID string) (Summary, error) {
	variation := s.variations[serviceID]
	if variation == "" {
		return Summary{NextAvailableTime: NoAvailability}, ErrUnmappedService
	}
	end := schedule.DateOf(now).AddDate(0, 0, 1)
	avails, err := s.client.SearchAvailability(ctx, now, end, variation)
	if err != nil {
		return Summary{NextAvailableTime: NoAvailability}, err
	}
	sum := Summary{Success: true, AvailableSlots: len(avails), TotalSlots: len(avails), NextAvailableTime: NoAvailability}
	if len(avails) > 0 {
		if t, err := time.Parse(time.RFC3339, avails[0].StartAt); err == nil {
			t = t.In(now.Location())
			sum.NextAvailableTime = schedule.Clock{Hour: t.Hour(), Minute: t.Minute()}.Label()
		}
	}
	return sum, nil
}
