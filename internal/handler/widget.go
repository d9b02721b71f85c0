package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/middleware"
	"github.com/recoverykneads/booking/internal/schedule"
	"github.com/recoverykneads/booking/internal/utils"
	"github.com/recoverykneads/booking/internal/widget"
)

// WidgetHandler serves the HTML fragments of the booking widget: calendar,
// time slots, summary and confirmation.
type WidgetHandler struct {
	Source   schedule.Source
	Business widget.Business
	Location *time.Location
	Now      func() time.Time
	Log      *zap.Logger
}

func (h *WidgetHandler) now() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	if h.Location == nil {
		return now()
	}
	return now().In(h.Location)
}

// Calendar handles GET /widget/calendar?year=2025&month=6&service=id.
// Missing or invalid year and month default to the current month.
func (h *WidgetHandler) Calendar(c echo.Context) error {
	now := h.now()
	year, month := now.Year(), now.Month()
	if y, err := strconv.Atoi(c.QueryParam("year")); err == nil && y > 0 {
		year = y
	}
	if m, err := strconv.Atoi(c.QueryParam("month")); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	}
	var selected time.Time
	if s := c.QueryParam("selected"); s != "" {
		selected, _ = schedule.ParseDate(s, now.Location())
	}

	cal, err := widget.BuildCalendar(c.Request().Context(), h.Source, year, month, c.QueryParam("service"), now, selected)
	if err != nil {
		return h.fail(c, err)
	}
	var buf bytes.Buffer
	if err := widget.RenderCalendar(&buf, cal); err != nil {
		return h.fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Slots handles GET /widget/slots?date=YYYY-MM-DD&service=id.
func (h *WidgetHandler) Slots(c echo.Context) error {
	now := h.now()
	day, err := schedule.ParseDate(c.QueryParam("date"), now.Location())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid date format"})
	}
	list, err := widget.BuildSlots(c.Request().Context(), h.Source, day, c.QueryParam("service"), h.Business.Phone)
	if err != nil {
		return h.fail(c, err)
	}
	list.Selected = c.QueryParam("selected")
	var buf bytes.Buffer
	if err := widget.RenderSlots(&buf, list); err != nil {
		return h.fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// selectionMessages maps refused wizard selections to visitor text.
var selectionMessages = map[error]string{
	widget.ErrUnknownService:  "Invalid service selection",
	widget.ErrDatePassed:      "Date has passed",
	widget.ErrDateClosed:      "We are closed on Sundays",
	widget.ErrFullyBooked:     "This date is fully booked",
	widget.ErrTimeUnavailable: "Selected time is no longer available",
}

// Summary handles GET /widget/summary?service=id&date=YYYY-MM-DD&time=HH:MM.
// The selection is replayed through a fresh Flow, so a stale or refused pick
// answers 400 instead of a recap.
func (h *WidgetHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	now := h.now()
	day, err := schedule.ParseDate(c.QueryParam("date"), now.Location())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid date format"})
	}

	flow := widget.NewFlow(h.Source, h.Business, now.Location(), h.now)
	err = flow.SelectService(c.QueryParam("service"))
	if err == nil {
		err = flow.SelectDate(ctx, day)
	}
	if err == nil {
		err = flow.SelectTime(ctx, c.QueryParam("time"))
	}
	if err != nil {
		for target, msg := range selectionMessages {
			if errors.Is(err, target) {
				return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": msg})
			}
		}
		return h.fail(c, err)
	}

	var buf bytes.Buffer
	if err := widget.RenderSummary(&buf, flow.Summary()); err != nil {
		return h.fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Confirmation handles GET /widget/confirmation?token=<receipt>.  It must run
// behind middleware.ReceiptAuth.
func (h *WidgetHandler) Confirmation(c echo.Context) error {
	claims, ok := c.Get(middleware.ReceiptKey).(*utils.ReceiptClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing receipt"})
	}
	conf := widget.ReceiptConfirmation(claims, h.Business, h.now().Location())
	var buf bytes.Buffer
	if err := widget.RenderConfirmation(&buf, conf, h.Business); err != nil {
		return h.fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *WidgetHandler) fail(c echo.Context, err error) error {
	if h.Log != nil {
		h.Log.Error("render widget fragment failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error loading availability"})
}
