package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/queue"
)

const appointmentSubject = "New Appointment Request"

// Notifier tells the practice about new appointment requests.
type Notifier struct {
	sender    EmailSender
	recipient string
	logger    *zap.Logger
}

// NewNotifier sends to recipient through sender.  An empty recipient turns
// notifications off.
func NewNotifier(sender EmailSender, recipient string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{sender: sender, recipient: strings.TrimSpace(recipient), logger: logger}
}

// Enabled reports whether a recipient is configured.
func (n *Notifier) Enabled() bool { return n.recipient != "" && n.sender != nil }

// AppointmentRequested emails the practice.  Its signature matches
// queue.Handler so it can be plugged into the consumer directly.
func (n *Notifier) AppointmentRequested(ctx context.Context, ev queue.AppointmentRequestedEvent) error {
	if !n.Enabled() {
		n.logger.Debug("notification skipped: no recipient", zap.String("appointment_id", ev.AppointmentID))
		return nil
	}
	return n.sender.Send(ctx, Email{
		To:      n.recipient,
		Subject: appointmentSubject,
		Text:    appointmentBody(ev),
	})
}

// PublishAppointmentRequested notifies synchronously.  It lets the Notifier
// stand in for the queue publisher when no broker is configured.
func (n *Notifier) PublishAppointmentRequested(ctx context.Context, appt model.Appointment) error {
	return n.AppointmentRequested(ctx, queue.NewAppointmentRequestedEvent(appt))
}

func appointmentBody(ev queue.AppointmentRequestedEvent) string {
	name := ev.ServiceName
	if name == "" {
		name = ev.Service
	}
	var b strings.Builder
	fmt.Fprintf(&b, "New appointment request for %s on %s at %s\n\n", name, ev.Date, ev.Time)
	if ev.DurationMinutes > 0 {
		fmt.Fprintf(&b, "Duration: %d minutes\n", ev.DurationMinutes)
	}
	if ev.NewClient {
		b.WriteString("New client: yes\n")
	}
	fmt.Fprintf(&b, "Reference: %s\n", ev.AppointmentID)
	if ev.ExternalID != "" {
		fmt.Fprintf(&b, "Square booking: %s\n", ev.ExternalID)
	}
	return b.String()
}
