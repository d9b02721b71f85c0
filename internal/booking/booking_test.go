package booking

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/queue"
)

// Monday 2 June 2025, 10:00.
var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func testPolicy() Policy {
	return Policy{Location: time.UTC, MinAdvance: 24 * time.Hour, MaxAdvance: 90 * 24 * time.Hour}
}

func validRequest() model.BookingRequest {
	return model.BookingRequest{
		Name:    "Jane O'Neil",
		Email:   "Jane@Example.com ",
		Phone:   "(239) 555-0100",
		Service: "therapeutic-60",
		Date:    "2025-06-04",
		Time:    "10:00",
		Notes:   "Lower back <tension>",
	}
}

type fakeForwarder struct {
	err  error
	got  model.Appointment
	call int
}

func (f *fakeForwarder) Forward(_ context.Context, a model.Appointment) (string, error) {
	f.call++
	f.got = a
	if f.err != nil {
		return "", f.err
	}
	return "sq-booking-1", nil
}

type fakePublisher struct {
	err  error
	sent []model.Appointment
}

func (p *fakePublisher) PublishAppointmentRequested(_ context.Context, a model.Appointment) error {
	p.sent = append(p.sent, a)
	return p.err
}

func newTestService(opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(testPolicy(), nil, opts...)
}

func TestSubmit_Valid(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(WithPublisher(pub))

	appt, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Len(t, appt.ID, 32)
	assert.Equal(t, model.StatusPending, appt.Status)
	assert.Equal(t, "jane@example.com", appt.Request.Email)
	assert.Equal(t, "Lower back &lt;tension&gt;", appt.Request.Notes)
	assert.Equal(t, time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC), appt.Start)
	assert.Equal(t, time.Hour, appt.Duration)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, appt.ID, pub.sent[0].ID)
}

func TestSubmit_PastDateRejected(t *testing.T) {
	req := validRequest()
	req.Date = "2025-06-01"

	_, err := newTestService().Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestSubmit_SundayClosed(t *testing.T) {
	req := validRequest()
	req.Date = "2025-06-08"

	_, err := newTestService().Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrClosed)

	var re *RuleError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "We are closed on Sundays", re.Message)
}

func TestSubmit_OutsideHours(t *testing.T) {
	cases := map[string]model.BookingRequest{
		"weekday evening": func() model.BookingRequest { r := validRequest(); r.Time = "19:00"; return r }(),
		"saturday late":   func() model.BookingRequest { r := validRequest(); r.Date = "2025-06-07"; r.Time = "17:00"; return r }(),
		"early":           func() model.BookingRequest { r := validRequest(); r.Time = "08:30"; return r }(),
		"runs past close": func() model.BookingRequest { r := validRequest(); r.Service = "deep-tissue-90"; r.Time = "18:00"; return r }(),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestService().Submit(context.Background(), req)
			assert.ErrorIs(t, err, ErrOutsideHours)
		})
	}
}

func TestSubmit_AdvanceWindow(t *testing.T) {
	soon := validRequest()
	soon.Date = "2025-06-03"
	soon.Time = "09:00"
	_, err := newTestService().Submit(context.Background(), soon)
	require.ErrorIs(t, err, ErrTooSoon)
	assert.Contains(t, err.Error(), "24 hours")

	far := validRequest()
	far.Date = "2025-12-01"
	_, err = newTestService().Submit(context.Background(), far)
	require.ErrorIs(t, err, ErrTooFarAhead)
	assert.Contains(t, err.Error(), "90 days")
}

func TestSubmit_FieldErrors(t *testing.T) {
	req := validRequest()
	req.Email = "not-an-email"
	req.Phone = "12345"

	_, err := newTestService().Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []FieldError{
		{Field: "email", Message: "Invalid email address"},
		{Field: "phone", Message: "Invalid phone number format"},
	}, ve.Fields)
}

func TestValidate_Rules(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*model.BookingRequest)
		field string
	}{
		{"short name", func(r *model.BookingRequest) { r.Name = "J" }, "name"},
		{"digits in name", func(r *model.BookingRequest) { r.Name = "R2D2" }, "name"},
		{"long email", func(r *model.BookingRequest) { r.Email = strings.Repeat("a", 250) + "@x.com" }, "email"},
		{"unknown service", func(r *model.BookingRequest) { r.Service = "hot-stone" }, "service"},
		{"bad date", func(r *model.BookingRequest) { r.Date = "06/04/2025" }, "date"},
		{"bad time", func(r *model.BookingRequest) { r.Time = "25:00" }, "time"},
		{"long notes", func(r *model.BookingRequest) { r.Notes = strings.Repeat("x", 1001) }, "notes"},
		{"missing phone", func(r *model.BookingRequest) { r.Phone = "" }, "phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.edit(&req)
			fields := Validate(Normalize(req))
			require.Len(t, fields, 1)
			assert.Equal(t, tc.field, fields[0].Field)
		})
	}
	assert.Empty(t, Validate(Normalize(validRequest())))
}

func TestSubmit_Forwarding(t *testing.T) {
	fwd := &fakeForwarder{}
	appt, err := newTestService(WithForwarder(fwd)).Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, fwd.call)
	assert.Equal(t, "sq-booking-1", appt.ExternalID)
	assert.Equal(t, model.StatusForwarded, appt.Status)

	failing := &fakeForwarder{err: errors.New("502 from upstream")}
	_, err = newTestService(WithForwarder(failing)).Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrForwardFailed)
}

func TestSubmit_PublishFailureDoesNotFail(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	_, err := newTestService(WithPublisher(pub)).Submit(context.Background(), validRequest())
	assert.NoError(t, err)
	assert.Len(t, pub.sent, 1)
}

func TestSubmit_IDFailure(t *testing.T) {
	svc := newTestService(WithIDs(func() (string, error) { return "", errors.New("entropy") }))
	_, err := svc.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "24 hours", humanize(24*time.Hour))
	assert.Equal(t, "90 days", humanize(90*24*time.Hour))
	assert.Equal(t, "1 hour", humanize(time.Hour))
	assert.Equal(t, "30m0s", humanize(30*time.Minute))
}

func TestSubmit_UnresponsiveBrokerDoesNotStallRequest(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				_ = c.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, conn)
		}
	}()

	svc := newTestService(WithPublisher(queue.NewPublisher("amqp://guest:guest@"+ln.Addr().String()+"/", nil)))
	start := time.Now()
	appt, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Less(t, time.Since(start), publishTimeout+2*time.Second)
}
