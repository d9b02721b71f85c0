package widget

import (
	"context"
	"strconv"
	"time"

	"github.com/recoverykneads/booking/internal/schedule"
)

// CalendarCells is the fixed size of a month grid: six weeks.
const CalendarCells = 42

// limitedThreshold marks days with fewer open slots than this as limited.
const limitedThreshold = 3

// Day is one cell of the month grid.
type Day struct {
	Date           time.Time
	Number         int
	InMonth        bool
	Classes        []string
	Title          string
	Selectable     bool
	Limited        bool
	Closed         bool
	Past           bool
	AvailableSlots int
	Selected       bool
}

// Class joins the CSS classes of the cell.
func (d Day) Class() string {
	out := "calendar-day"
	for _, c := range d.Classes {
		out += " " + c
	}
	return out
}

// Key is the ISO date of the cell.
func (d Day) Key() string { return schedule.DateKey(d.Date) }

// Month is a rendered month with its navigation target.
type Month struct {
	Year    int
	Month   time.Month
	Title   string // "June 2025"
	Service string
	Days    []Day
}

// BuildCalendar lays out the 42 cells starting on the Sunday on or before
// the first of the month.  Open days that are not in the past are classified
// by how many starts src still offers for serviceID.  A schedule.RangeSource
// is asked once for the whole month.
func BuildCalendar(ctx context.Context, src schedule.Source, year int, month time.Month, serviceID string, now time.Time, selected time.Time) (Month, error) {
	loc := now.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	today := schedule.DateOf(now)

	m := Month{
		Year:    first.Year(),
		Month:   first.Month(),
		Title:   first.Format("January 2006"),
		Service: serviceID,
		Days:    make([]Day, 0, CalendarCells),
	}
	var byDay map[string][]schedule.Slot
	if rs, ok := src.(schedule.RangeSource); ok {
		from, to := first, first.AddDate(0, 1, 0)
		if today.After(from) {
			from = today
		}
		if from.Before(to) {
			var err error
			if byDay, err = rs.SlotsRange(ctx, from, to, serviceID); err != nil {
				return Month{}, err
			}
		}
	}
	for i := 0; i < CalendarCells; i++ {
		date := start.AddDate(0, 0, i)
		d := Day{Date: date, Number: date.Day(), InMonth: date.Month() == first.Month()}
		if !selected.IsZero() && schedule.DateKey(date) == schedule.DateKey(selected) {
			d.Selected = true
		}
		switch {
		case !d.InMonth:
			d.Classes = []string{"other-month"}
		case date.Before(today):
			d.Past = true
			d.Classes = []string{"past-date"}
			d.Title = "Date has passed"
		case !schedule.IsOpen(date):
			d.Closed = true
			d.Classes = []string{"weekend"}
			d.Title = "Closed on Sundays"
		default:
			slots, ok := byDay[schedule.DateKey(date)]
			if !ok {
				var err error
				if slots, err = src.Slots(ctx, date, serviceID); err != nil {
					return Month{}, err
				}
			}
			classify(&d, schedule.CountAvailable(slots))
		}
		if d.Selected && d.Selectable {
			d.Classes = append(d.Classes, "selected")
		}
		m.Days = append(m.Days, d)
	}
	return m, nil
}

func classify(d *Day, available int) {
	d.AvailableSlots = available
	switch {
	case available == 0:
		d.Classes = []string{"fully-booked"}
		d.Title = "Fully booked"
	case available < limitedThreshold:
		d.Selectable = true
		d.Limited = true
		d.Classes = []string{"available", "limited"}
		d.Title = plural(available, "slot") + " remaining"
	default:
		d.Selectable = true
		d.Classes = []string{"available"}
		d.Title = "Available"
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
