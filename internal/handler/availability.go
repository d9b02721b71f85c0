package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/schedule"
	"github.com/recoverykneads/booking/internal/square"
)

// DateTag returns the cache tag of a request: the "date" query parameter as
// a calendar day in loc.  Unparseable dates are tagged with the trimmed raw
// value.
func DateTag(loc *time.Location) func(echo.Context) string {
	return func(c echo.Context) string {
		raw := c.QueryParam("date")
		if d, err := schedule.ParseDate(raw, loc); err == nil {
			return schedule.DateKey(d)
		}
		return strings.TrimSpace(raw)
	}
}

// AvailabilityEntry is one start time in the availability response.
type AvailabilityEntry struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AvailabilityHandler answers the availability endpoints from a schedule
// source.  Square is only set when the Square integration is configured.
type AvailabilityHandler struct {
	Source   schedule.Source
	Square   *square.AvailabilitySource
	Location *time.Location
	Now      func() time.Time
	Log      *zap.Logger
}

func (h *AvailabilityHandler) now() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (h *AvailabilityHandler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// GetAvailability handles GET /api/availability?date=YYYY-MM-DD&service=id.
// Closed days yield an empty list.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	service := strings.TrimSpace(c.QueryParam("service"))
	if date == "" || service == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Date and service are required"})
	}
	day, err := schedule.ParseDate(date, h.now().Location())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid date format"})
	}

	slots, err := h.Source.Slots(c.Request().Context(), day, service)
	if err != nil {
		h.logger().Error("availability check error", zap.String("date", date), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Error checking availability"})
	}
	out := make([]AvailabilityEntry, 0, len(slots))
	for _, s := range slots {
		out = append(out, AvailabilityEntry{Time: s.Time, Available: s.Available})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"date":         date,
		"service":      service,
		"availability": out,
	})
}

// GetSquareAvailability handles GET /api/square-availability?service=id and
// summarises what is left of today.  Failures degrade to the "call for
// availability" summary with success false.
func (h *AvailabilityHandler) GetSquareAvailability(c echo.Context) error {
	if h.Square == nil {
		return c.JSON(http.StatusServiceUnavailable, square.Summary{NextAvailableTime: square.NoAvailability})
	}
	service := c.QueryParam("service")
	if service == "" {
		service = "therapeutic-60"
	}
	sum, err := h.Square.NextAvailable(c.Request().Context(), h.now(), service)
	if err != nil {
		if !errors.Is(err, square.ErrUnmappedService) {
			h.logger().Warn("square availability failed", zap.Error(err))
		}
		return c.JSON(http.StatusOK, square.Summary{NextAvailableTime: square.NoAvailability})
	}
	return c.JSON(http.StatusOK, sum)
}
