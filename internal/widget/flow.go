// Package widget is the booking wizard: a per-visitor state machine that
// walks service, date, time and contact details, plus the calendar and time
// slot fragments it renders.
package widget

import (
	"context"
	"errors"
	"time"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
	"github.com/recoverykneads/booking/internal/utils"
)

// Step is a page of the wizard.
type Step int

const (
	StepService Step = iota + 1
	StepDate
	StepTime
	StepDetails
	StepConfirmation
)

var stepNames = map[Step]string{
	StepService:      "service",
	StepDate:         "date",
	StepTime:         "time",
	StepDetails:      "book",
	StepConfirmation: "confirmation",
}

func (s Step) String() string { return stepNames[s] }

var (
	ErrUnknownService  = errors.New("unknown service")
	ErrWrongStep       = errors.New("not available at this step")
	ErrDatePassed      = errors.New("date has passed")
	ErrDateClosed      = errors.New("closed on Sundays")
	ErrFullyBooked     = errors.New("fully booked")
	ErrTimeUnavailable = errors.New("time slot not available")
	ErrInvalidDetails  = errors.New("invalid details")
)

// Business is the practice information the wizard shows.
type Business struct {
	Name       string
	Phone      string
	Address    string
	BookingURL string
}

// Confirmation is shown on the last step.
type Confirmation struct {
	Number        string
	AppointmentID string
	Receipt       string
	Summary       Summary
	Message       string
}

// Summary is the booking recap of the details step.
type Summary struct {
	ServiceName string
	Label       string
	Duration    int
	Price       string
	Date        string
	Time        string
	BookingURL  string
}

// Flow holds one visitor's progress through the wizard.  It is not safe for
// concurrent use; every page session gets its own Flow.
type Flow struct {
	src      schedule.Source
	business Business
	now      func() time.Time
	loc      *time.Location

	step    Step
	year    int
	month   time.Month
	service *model.Service
	date    time.Time
	slot    *schedule.Slot
	confirm *Confirmation
}

// NewFlow starts a wizard on the service step, showing the current month.
func NewFlow(src schedule.Source, business Business, loc *time.Location, now func() time.Time) *Flow {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	f := &Flow{src: src, business: business, now: now, loc: loc}
	f.Reset()
	return f
}

func (f *Flow) today() time.Time { return schedule.DateOf(f.now().In(f.loc)) }

// Reset returns to the first step with nothing selected.
func (f *Flow) Reset() {
	t := f.today()
	f.step = StepService
	f.year, f.month = t.Year(), t.Month()
	f.service = nil
	f.date = time.Time{}
	f.slot = nil
	f.confirm = nil
}

func (f *Flow) Step() Step { return f.step }

// Month returns the month the calendar shows.
func (f *Flow) Month() (int, time.Month) { return f.year, f.month }

// Service returns the selected service, if any.
func (f *Flow) Service() (model.Service, bool) {
	if f.service == nil {
		return model.Service{}, false
	}
	return *f.service, true
}

// Date returns the selected day; zero when none.
func (f *Flow) Date() time.Time { return f.date }

// Time returns the selected start, if any.
func (f *Flow) Time() (schedule.Slot, bool) {
	if f.slot == nil {
		return schedule.Slot{}, false
	}
	return *f.slot, true
}

// Confirmation returns the result of a successful submit.
func (f *Flow) Confirmation() (Confirmation, bool) {
	if f.confirm == nil {
		return Confirmation{}, false
	}
	return *f.confirm, true
}

// SelectService picks a service and moves to the date step.  Changing the
// service drops the chosen time, since slot lengths differ.
func (f *Flow) SelectService(id string) error {
	if f.step == StepConfirmation {
		return ErrWrongStep
	}
	s, ok := model.LookupService(id)
	if !ok {
		return ErrUnknownService
	}
	if f.service == nil || f.service.ID != s.ID {
		f.slot = nil
	}
	f.service = &s
	f.step = StepDate
	return nil
}

// PrevMonth shows the previous month, wrapping into the previous year.
func (f *Flow) PrevMonth() {
	if f.month == time.January {
		f.month = time.December
		f.year--
		return
	}
	f.month--
}

// NextMonth shows the next month, wrapping into the next year.
func (f *Flow) NextMonth() {
	if f.month == time.December {
		f.month = time.January
		f.year++
		return
	}
	f.month++
}

// Calendar renders the month currently shown.
func (f *Flow) Calendar(ctx context.Context) (Month, error) {
	return BuildCalendar(ctx, f.src, f.year, f.month, f.serviceID(), f.now().In(f.loc), f.date)
}

func (f *Flow) serviceID() string {
	if f.service == nil {
		return ""
	}
	return f.service.ID
}

// SelectDate picks a day and moves to the time step.  Past, closed and fully
// booked days are refused.
func (f *Flow) SelectDate(ctx context.Context, day time.Time) error {
	if f.step < StepDate || f.step > StepDetails || f.service == nil {
		return ErrWrongStep
	}
	d := schedule.DateOf(day.In(f.loc))
	if d.Before(f.today()) {
		return ErrDatePassed
	}
	if !schedule.IsOpen(d) {
		return ErrDateClosed
	}
	slots, err := f.src.Slots(ctx, d, f.service.ID)
	if err != nil {
		return err
	}
	if schedule.CountAvailable(slots) == 0 {
		return ErrFullyBooked
	}
	f.date = d
	f.year, f.month = d.Year(), d.Month()
	f.slot = nil
	f.step = StepTime
	return nil
}

// TimeSlots lists the starts of the selected day.
func (f *Flow) TimeSlots(ctx context.Context) (SlotList, error) {
	if f.date.IsZero() || f.service == nil {
		return SlotList{}, ErrWrongStep
	}
	list, err := BuildSlots(ctx, f.src, f.date, f.service.ID, f.business.Phone)
	if err != nil {
		return SlotList{}, err
	}
	if f.slot != nil {
		list.Selected = f.slot.Time
	}
	return list, nil
}

// SelectTime picks a start ("14:00") and moves to the details step.
func (f *Flow) SelectTime(ctx context.Context, clock string) error {
	if f.step < StepTime || f.step > StepDetails || f.date.IsZero() {
		return ErrWrongStep
	}
	c, err := schedule.ParseClock(clock)
	if err != nil {
		return ErrTimeUnavailable
	}
	slots, err := f.src.Slots(ctx, f.date, f.service.ID)
	if err != nil {
		return err
	}
	s, ok := schedule.Find(slots, c)
	if !ok || !s.Available {
		return ErrTimeUnavailable
	}
	f.slot = &s
	f.step = StepDetails
	return nil
}

// Back moves one step back.  It reports false on the first step and after
// confirmation.
func (f *Flow) Back() bool {
	if f.step <= StepService || f.step >= StepConfirmation {
		return false
	}
	f.step--
	return true
}

// Summary recaps the selection for the details step.
func (f *Flow) Summary() Summary {
	s := Summary{BookingURL: f.business.BookingURL}
	if f.service != nil {
		s.ServiceName = f.service.Name
		s.Label = f.service.Label()
		s.Duration = f.service.DurationMinutes
		s.Price = f.service.Price()
	}
	if !f.date.IsZero() {
		s.Date = LongDate(f.date)
	}
	if f.slot != nil {
		s.Time = f.slot.Label
	}
	return s
}

// Request builds the proxy request from the selection and details.
func (f *Flow) Request(d Details) model.BookingRequest {
	req := model.BookingRequest{
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Notes:     d.Notes,
		NewClient: d.NewClient,
		Consent:   d.Consent,
	}
	if f.service != nil {
		req.Service = f.service.ID
	}
	if !f.date.IsZero() {
		req.Date = schedule.DateKey(f.date)
	}
	if f.slot != nil {
		req.Time = f.slot.Time
	}
	return req
}

// Submit validates the details and sends the request.  Field errors come
// back without contacting the proxy.  On success the flow moves to the
// confirmation step; on failure it stays on the details step.
func (f *Flow) Submit(ctx context.Context, d Details, sub Submitter) (Confirmation, []FieldError, error) {
	if f.step != StepDetails || f.slot == nil {
		return Confirmation{}, nil, ErrWrongStep
	}
	if errs := ValidateDetails(d, f.date, f.today()); len(errs) > 0 {
		return Confirmation{}, errs, ErrInvalidDetails
	}
	res, err := sub.Book(ctx, f.Request(d))
	if err != nil {
		var rej *RejectedError
		if errors.As(err, &rej) {
			return Confirmation{}, rej.Fields, err
		}
		return Confirmation{}, nil, &RejectedError{Message: NetworkMessage}
	}

	number := res.ConfirmationNumber
	if number == "" {
		number = utils.ConfirmationNumber(f.now())
	}
	c := &Confirmation{
		Number:        number,
		AppointmentID: res.AppointmentID,
		Receipt:       res.Receipt,
		Summary:       f.Summary(),
		Message:       res.Message,
	}
	f.confirm = c
	f.step = StepConfirmation
	return *c, nil, nil
}
