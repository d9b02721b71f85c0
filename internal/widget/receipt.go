package widget

import (
	"time"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
	"github.com/recoverykneads/booking/internal/utils"
)

// ReceiptConfirmation rebuilds the confirmation step from verified receipt
// claims, for visitors who reload the page after booking.
func ReceiptConfirmation(claims *utils.ReceiptClaims, b Business, loc *time.Location) Confirmation {
	s := Summary{ServiceName: claims.ServiceName, Date: claims.Date, Time: claims.Time, BookingURL: b.BookingURL}
	if svc, ok := model.LookupService(claims.Service); ok {
		s.ServiceName = svc.Name
		s.Label = svc.Label()
		s.Duration = svc.DurationMinutes
		s.Price = svc.Price()
	}
	if d, err := schedule.ParseDate(claims.Date, loc); err == nil {
		s.Date = LongDate(d)
	}
	if c, err := schedule.ParseClock(claims.Time); err == nil {
		s.Time = c.Label()
	}
	return Confirmation{
		Number:        claims.ConfirmationNumber,
		AppointmentID: claims.Subject,
		Summary:       s,
	}
}
