package booking

import (
	"fmt"
	"time"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
)

// RuleError is a scheduling rule violation.  Message is safe to show to the
// visitor; Code is stable for clients and tests.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Code + ": " + e.Message }

// Is matches rule errors by code so that messages may vary with the policy.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	return ok && t.Code == e.Code
}

var (
	ErrPastDate     = &RuleError{Code: "past_date", Message: "Appointment date must be in the future"}
	ErrClosed       = &RuleError{Code: "closed", Message: "We are closed on Sundays"}
	ErrOutsideHours = &RuleError{Code: "outside_hours", Message: "Selected time is outside business hours"}
	ErrTooSoon      = &RuleError{Code: "too_soon", Message: "Appointments must be requested further in advance"}
	ErrTooFarAhead  = &RuleError{Code: "too_far_ahead", Message: "Appointments cannot be requested that far in advance"}
)

// Policy is the booking window applied on top of opening hours.
type Policy struct {
	Location   *time.Location
	MinAdvance time.Duration
	MaxAdvance time.Duration
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Start resolves the requested date and time to an instant in the business
// time zone.  The request must already have passed Validate.
func (p Policy) Start(req model.BookingRequest) (time.Time, error) {
	day, err := schedule.ParseDate(req.Date, p.location())
	if err != nil {
		return time.Time{}, err
	}
	c, err := schedule.ParseClock(req.Time)
	if err != nil {
		return time.Time{}, err
	}
	return c.On(day), nil
}

// Check applies the scheduling rules in order: future start, open day,
// within hours (including the service length), then the advance window.
// It returns the resolved start time.
func (p Policy) Check(req model.BookingRequest, now time.Time) (time.Time, error) {
	start, err := p.Start(req)
	if err != nil {
		return time.Time{}, err
	}
	if !start.After(now) {
		return start, ErrPastDate
	}
	hours, open := schedule.HoursFor(start.Weekday())
	if !open {
		return start, ErrClosed
	}
	c := schedule.Clock{Hour: start.Hour(), Minute: start.Minute()}
	d := time.Duration(model.ServiceDuration(req.Service)) * time.Minute
	if !hours.Fits(c, d) {
		return start, ErrOutsideHours
	}
	if p.MinAdvance > 0 && start.Before(now.Add(p.MinAdvance)) {
		return start, &RuleError{
			Code:    ErrTooSoon.Code,
			Message: fmt.Sprintf("Appointments must be requested at least %s in advance", humanize(p.MinAdvance)),
		}
	}
	if p.MaxAdvance > 0 && start.After(now.Add(p.MaxAdvance)) {
		return start, &RuleError{
			Code:    ErrTooFarAhead.Code,
			Message: fmt.Sprintf("Appointments can be requested at most %s in advance", humanize(p.MaxAdvance)),
		}
	}
	return start, nil
}

// humanize renders whole days or hours: "24 hours", "90 days".
func humanize(d time.Duration) string {
	switch {
	case d >= 48*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return d.String()
	}
}
