// Package queue carries appointment events over RabbitMQ: payloads, the
// publisher used by the booking service and the background consumer.
package queue

import (
	"time"

	"github.com/recoverykneads/booking/internal/model"
)

// AppointmentRequestedQueue is the durable queue for accepted requests.
const AppointmentRequestedQueue = "appointment.requested"

// AppointmentRequestedEvent is published when a booking request is accepted.
// It carries no customer contact details.
type AppointmentRequestedEvent struct {
	AppointmentID   string `json:"appointment_id"`
	Service         string `json:"service"`
	ServiceName     string `json:"service_name"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	NewClient       bool   `json:"new_client"`
	Status          string `json:"status"`
	ExternalID      string `json:"external_id,omitempty"`
	RequestedAt     string `json:"requested_at"`
}

// NewAppointmentRequestedEvent builds the event for an accepted appointment.
func NewAppointmentRequestedEvent(appt model.Appointment) AppointmentRequestedEvent {
	name := appt.Request.Service
	if s, ok := model.LookupService(appt.Request.Service); ok {
		name = s.Name
	}
	return AppointmentRequestedEvent{
		AppointmentID:   appt.ID,
		Service:         appt.Request.Service,
		ServiceName:     name,
		Date:            appt.Request.Date,
		Time:            appt.Request.Time,
		DurationMinutes: int(appt.Duration / time.Minute),
		NewClient:       appt.Request.NewClient,
		Status:          appt.Status,
		ExternalID:      appt.ExternalID,
		RequestedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
	}
}
