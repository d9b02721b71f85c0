package model

import "time"

// BookingRequest is the transient record a visitor submits from the booking
// widget.  It is never stored; it lives for the duration of one request.
//
// Fields:
//  Name, Email, Phone – contact details of the customer.
//  Service            – one of the catalog identifiers.
//  Date               – desired day, ISO-8601 ("2006-01-02").
//  Time               – desired start, "HH:MM" in the business time zone.
//  Notes              – optional free text, at most 1000 characters.
//  NewClient          – first visit to the practice.
//  Consent            – terms and cancellation policy accepted.
type BookingRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=100,personname"`
	Email     string `json:"email" validate:"required,max=254,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Service   string `json:"service" validate:"required,serviceid"`
	Date      string `json:"date" validate:"required,isodate"`
	Time      string `json:"time" validate:"required,clock"`
	Notes     string `json:"notes,omitempty" validate:"max=1000"`
	NewClient bool   `json:"newClient,omitempty"`
	Consent   bool   `json:"consent,omitempty"`
}

// Appointment statuses.  Requests are accepted as pending; confirmation
// happens out of band.
const (
	StatusPending   = "pending"
	StatusForwarded = "forwarded"
)

// Appointment is the accepted form of a BookingRequest.
type Appointment struct {
	ID         string         // opaque 32 hex character identifier
	Request    BookingRequest // normalised request
	Start      time.Time      // start in the business time zone
	Duration   time.Duration  // catalog duration of the service
	Status     string         // StatusPending or StatusForwarded
	ExternalID string         // scheduling platform booking id, when forwarded
	CreatedAt  time.Time
}

// End returns the time the appointment finishes.
func (a Appointment) End() time.Time { return a.Start.Add(a.Duration) }
