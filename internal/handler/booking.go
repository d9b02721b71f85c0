// Package handler exposes the HTTP handlers of the booking proxy.  Responses
// use the {success, message} envelope the booking widget expects.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/booking"
	"github.com/recoverykneads/booking/internal/metrics"
	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
	"github.com/recoverykneads/booking/internal/square"
	"github.com/recoverykneads/booking/internal/utils"
)

// EstimatedConfirmation is how long the practice takes to confirm a request.
const EstimatedConfirmation = "24 hours"

// Invalidator drops cached responses by tag.
type Invalidator interface {
	Invalidate(ctx context.Context, tag string) error
}

// BookingHandler accepts appointment requests.
type BookingHandler struct {
	Service       *booking.Service
	ReceiptSecret string
	ReceiptTTL    time.Duration
	Cache         Invalidator // optional; availability entries are tagged by DateTag
	Metrics       *metrics.BookingMetrics
	Log           *zap.Logger
}

// NewBookingHandler constructs a BookingHandler and panics if the service is nil.
func NewBookingHandler(svc *booking.Service, secret string, ttl time.Duration, cache Invalidator, log *zap.Logger) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Service: svc, ReceiptSecret: secret, ReceiptTTL: ttl, Cache: cache, Log: log}
}

// BookAppointment handles POST /api/book-appointment.
func (h *BookingHandler) BookAppointment(c echo.Context) error {
	var req model.BookingRequest
	if err := c.Bind(&req); err != nil {
		h.Metrics.ObserveBooking(metrics.OutcomeInvalid, "unknown")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Invalid request body",
			"errors":  []booking.FieldError{{Field: "request", Message: "Invalid request body"}},
		})
	}
	ctx := c.Request().Context()

	appt, err := h.Service.Submit(ctx, req)
	if err != nil {
		return h.submitError(c, req.Service, err)
	}
	h.Metrics.ObserveBooking(metrics.OutcomeAccepted, appt.Request.Service)

	confirmation := utils.ConfirmationNumber(appt.CreatedAt)
	if appt.ExternalID != "" {
		confirmation = square.ConfirmationNumber(appt.ExternalID)
	}
	resp := echo.Map{
		"success":               true,
		"message":               "Appointment request submitted successfully",
		"appointmentId":         appt.ID,
		"estimatedConfirmation": EstimatedConfirmation,
		"confirmationNumber":    confirmation,
	}

	name := ""
	if svc, ok := model.LookupService(appt.Request.Service); ok {
		name = svc.Name
	}
	receipt, err := utils.NewReceipt(h.ReceiptSecret, appt.ID, utils.ReceiptClaims{
		Service:            appt.Request.Service,
		ServiceName:        name,
		Date:               appt.Request.Date,
		Time:               appt.Request.Time,
		ConfirmationNumber: confirmation,
	}, h.Service.Now(), h.ReceiptTTL)
	if err != nil {
		h.Log.Warn("sign receipt failed", zap.Error(err))
	} else {
		resp["receipt"] = receipt.Token
		resp["receiptExpires"] = receipt.Exp
	}

	if h.Cache != nil {
		day := schedule.DateKey(appt.Start)
		if err := h.Cache.Invalidate(context.WithoutCancel(ctx), day); err != nil {
			h.Log.Warn("invalidate availability cache failed", zap.String("date", day), zap.Error(err))
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) submitError(c echo.Context, service string, err error) error {
	if _, ok := model.LookupService(service); !ok {
		service = "unknown"
	}
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		h.Metrics.ObserveBooking(metrics.OutcomeInvalid, service)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	}
	var rerr *booking.RuleError
	if errors.As(err, &rerr) {
		h.Metrics.ObserveBooking(metrics.OutcomeRejected, service)
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": rerr.Message, "code": rerr.Code})
	}
	if errors.Is(err, booking.ErrForwardFailed) {
		h.Metrics.ObserveBooking(metrics.OutcomeForwardFailed, service)
		return c.JSON(http.StatusBadGateway, echo.Map{
			"success": false,
			"message": "We could not reach our scheduling system. Please call us to book.",
		})
	}
	h.Metrics.ObserveBooking(metrics.OutcomeError, service)
	h.Log.Error("booking error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"message": "Server error processing appointment request",
	})
}
