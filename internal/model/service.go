package model

import "fmt"

// Service is one of the fixed massage offerings.  Prices are kept in cents.
type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      int    `json:"priceCents"`
	Description     string `json:"description"`
}

// DefaultDurationMinutes is used for services that are not in the catalog.
const DefaultDurationMinutes = 60

var services = []Service{
	{ID: "therapeutic-60", Name: "Therapeutic Massage", DurationMinutes: 60, PriceCents: 9000,
		Description: "Full-body therapeutic massage focused on relaxation and recovery."},
	{ID: "therapeutic-90", Name: "Therapeutic Massage", DurationMinutes: 90, PriceCents: 13000,
		Description: "Extended therapeutic session with extra time for problem areas."},
	{ID: "deep-tissue-60", Name: "Deep Tissue Massage", DurationMinutes: 60, PriceCents: 10000,
		Description: "Firm pressure targeting chronic tension in deeper muscle layers."},
	{ID: "deep-tissue-90", Name: "Deep Tissue Massage", DurationMinutes: 90, PriceCents: 14000,
		Description: "Extended deep tissue work for persistent knots and adhesions."},
	{ID: "sports-60", Name: "Sports Massage", DurationMinutes: 60, PriceCents: 10000,
		Description: "Pre- and post-event work aimed at performance and injury prevention."},
}

// Services returns a copy of the catalog in display order.
func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// ServiceIDs lists the identifiers accepted by the booking API.
func ServiceIDs() []string {
	ids := make([]string, 0, len(services))
	for _, s := range services {
		ids = append(ids, s.ID)
	}
	return ids
}

// LookupService finds a service by identifier.
func LookupService(id string) (Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// ServiceDuration returns the duration in minutes, falling back to
// DefaultDurationMinutes for unknown identifiers.
func ServiceDuration(id string) int {
	if s, ok := LookupService(id); ok {
		return s.DurationMinutes
	}
	return DefaultDurationMinutes
}

// Price formats the price as whole dollars, e.g. "$90".
func (s Service) Price() string {
	if s.PriceCents%100 == 0 {
		return fmt.Sprintf("$%d", s.PriceCents/100)
	}
	return fmt.Sprintf("$%d.%02d", s.PriceCents/100, s.PriceCents%100)
}

// Label is the name with its duration, e.g. "Sports Massage (60 min)".
func (s Service) Label() string {
	return fmt.Sprintf("%s (%d min)", s.Name, s.DurationMinutes)
}
