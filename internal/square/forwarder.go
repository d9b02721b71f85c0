package square

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/recoverykneads/booking/internal/model"
)

// ErrUnmappedService is returned when a catalog service has no Square
// service variation configured.
var ErrUnmappedService = errors.New("square: no service variation for service")

const sellerNote = "Booking made through Recovery Kneads website"

// Forwarder creates accepted appointments as Square bookings.
type Forwarder struct {
	client     *Client
	variations map[string]string
}

// NewForwarder maps catalog ids to Square service variation ids.
func NewForwarder(client *Client, variations map[string]string) *Forwarder {
	return &Forwarder{client: client, variations: variations}
}

// Forward implements booking.Forwarder and returns the Square booking id.
func (f *Forwarder) Forward(ctx context.Context, appt model.Appointment) (string, error) {
	b, err := f.bookingFor(appt)
	if err != nil {
		return "", err
	}
	created, err := f.client.CreateBooking(ctx, b)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (f *Forwarder) bookingFor(appt model.Appointment) (Booking, error) {
	req := appt.Request
	variation, ok := f.variations[req.Service]
	if !ok || variation == "" {
		return Booking{}, fmt.Errorf("%w %q", ErrUnmappedService, req.Service)
	}
	minutes := int(appt.Duration / time.Minute)
	given, family := splitName(req.Name)

	note := sellerNote + ". Service: " + serviceName(req.Service)
	if req.NewClient {
		note += ". New client"
	}
	return Booking{
		LocationID:      f.client.LocationID(),
		StartAt:         appt.Start.UTC().Format(time.RFC3339),
		DurationMinutes: minutes,
		AppointmentSegments: []AppointmentSegment{{
			DurationMinutes:    minutes,
			ServiceVariationID: variation,
		}},
		CustomerDetails: &CustomerDetails{
			GivenName:    given,
			FamilyName:   family,
			EmailAddress: req.Email,
			PhoneNumber:  req.Phone,
		},
		CustomerNote: req.Notes,
		SellerNote:   note,
		Source:       "FIRST_PARTY_MERCHANT",
	}, nil
}

func serviceName(id string) string {
	if s, ok := model.LookupService(id); ok {
		return s.Name
	}
	return id
}

// splitName puts the last word in the family name.
func splitName(full string) (given, family string) {
	full = strings.TrimSpace(full)
	i := strings.LastIndex(full, " ")
	if i < 0 {
		return full, ""
	}
	return full[:i], full[i+1:]
}
