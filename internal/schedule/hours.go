package schedule

import "time"

// Hours is an opening window in whole hours, [Open, Close).
type Hours struct {
	Open  int
	Close int
}

// Sunday is closed; weekdays run 9 to 7; Saturday 9 to 5.
var weeklyHours = map[time.Weekday]Hours{
	time.Monday:    {Open: 9, Close: 19},
	time.Tuesday:   {Open: 9, Close: 19},
	time.Wednesday: {Open: 9, Close: 19},
	time.Thursday:  {Open: 9, Close: 19},
	time.Friday:    {Open: 9, Close: 19},
	time.Saturday:  {Open: 9, Close: 17},
}

// HoursFor returns the opening hours of a weekday; ok is false when closed.
func HoursFor(w time.Weekday) (Hours, bool) {
	h, ok := weeklyHours[w]
	return h, ok
}

// IsOpen reports whether the practice opens at all on the day.
func IsOpen(day time.Time) bool {
	_, ok := HoursFor(day.Weekday())
	return ok
}

// Contains reports whether c starts within opening hours.
func (h Hours) Contains(c Clock) bool { return c.Hour >= h.Open && c.Hour < h.Close }

// Fits reports whether a session of length d starting at c ends by closing.
func (h Hours) Fits(c Clock, d time.Duration) bool {
	if !h.Contains(c) {
		return false
	}
	end := c.Minutes() + int(d/time.Minute)
	return end <= h.Close*60
}

// Grid lists the bookable starts of a day: every half hour from opening,
// except that the final hour only offers its full-hour start.  Starts at
// which a session of length d would run past closing are dropped; d <= 0
// keeps the whole grid.
func Grid(day time.Time, d time.Duration) []Clock {
	h, ok := HoursFor(day.Weekday())
	if !ok {
		return nil
	}
	out := make([]Clock, 0, (h.Close-h.Open)*2)
	for hour := h.Open; hour < h.Close; hour++ {
		out = append(out, Clock{Hour: hour})
		if hour < h.Close-1 {
			out = append(out, Clock{Hour: hour, Minute: 30})
		}
	}
	if d <= 0 {
		return out
	}
	fit := out[:0]
	for _, c := range out {
		if h.Fits(c, d) {
			fit = append(fit, c)
		}
	}
	return fit
}
