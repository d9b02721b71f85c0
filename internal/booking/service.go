// Package booking turns appointment requests from the widget into accepted
// appointments: it normalises and validates the request, applies the
// scheduling rules, optionally forwards to the scheduling platform and
// announces the request on the message bus.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/utils"
)

// ErrForwardFailed wraps failures of the scheduling platform.
var ErrForwardFailed = errors.New("forward to scheduling platform failed")

// Forwarder creates the appointment on the scheduling platform and returns
// the platform's booking id.
type Forwarder interface {
	Forward(ctx context.Context, appt model.Appointment) (string, error)
}

// Publisher announces accepted appointment requests.
type Publisher interface {
	PublishAppointmentRequested(ctx context.Context, appt model.Appointment) error
}

const publishTimeout = 3 * time.Second

// Service accepts appointment requests.  Forwarder and Publisher are
// optional.
type Service struct {
	policy    Policy
	forwarder Forwarder
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
	newID     func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

func WithForwarder(f Forwarder) Option          { return func(s *Service) { s.forwarder = f } }
func WithPublisher(p Publisher) Option          { return func(s *Service) { s.publisher = p } }
func WithClock(now func() time.Time) Option     { return func(s *Service) { s.now = now } }
func WithIDs(gen func() (string, error)) Option { return func(s *Service) { s.newID = gen } }

// NewService builds a Service for the given policy.
func NewService(policy Policy, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		policy: policy,
		log:    log,
		now:    time.Now,
		newID:  utils.NewAppointmentID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Policy returns the scheduling policy in effect.
func (s *Service) Policy() Policy { return s.policy }

// Now returns the service clock, in the business time zone.
func (s *Service) Now() time.Time { return s.now().In(s.policy.location()) }

// Submit validates and accepts a request.  Errors are a *ValidationError, a
// *RuleError, an error wrapping ErrForwardFailed, or an internal failure.
func (s *Service) Submit(ctx context.Context, req model.BookingRequest) (model.Appointment, error) {
	req = Normalize(req)
	if fields := Validate(req); len(fields) > 0 {
		return model.Appointment{}, &ValidationError{Fields: fields}
	}
	now := s.Now()
	start, err := s.policy.Check(req, now)
	if err != nil {
		return model.Appointment{}, err
	}
	req.Notes = escapeNotes(req.Notes)

	id, err := s.newID()
	if err != nil {
		return model.Appointment{}, fmt.Errorf("generate appointment id: %w", err)
	}
	appt := model.Appointment{
		ID:        id,
		Request:   req,
		Start:     start,
		Duration:  time.Duration(model.ServiceDuration(req.Service)) * time.Minute,
		Status:    model.StatusPending,
		CreatedAt: now,
	}

	// only service, date and time are logged; contact details stay out of logs
	s.log.Info("appointment request accepted",
		zap.String("service", req.Service),
		zap.String("date", req.Date),
		zap.String("time", req.Time),
	)

	if s.forwarder != nil {
		ext, err := s.forwarder.Forward(ctx, appt)
		if err != nil {
			s.log.Error("forward appointment failed", zap.String("service", req.Service), zap.Error(err))
			return model.Appointment{}, fmt.Errorf("%w: %v", ErrForwardFailed, err)
		}
		appt.ExternalID = ext
		appt.Status = model.StatusForwarded
	}

	if s.publisher != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishAppointmentRequested(pctx, appt); err != nil {
			s.log.Warn("publish appointment event failed", zap.Error(err))
		}
	}
	return appt, nil
}
