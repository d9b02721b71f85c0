package widget

import (
	"context"
	"fmt"
	"time"

	"github.com/recoverykneads/booking/internal/schedule"
)

// NoSlotsMessage is shown when a date has nothing left.
const NoSlotsMessage = "No available time slots for this date"

// SlotList is the time step of the wizard for one date.
type SlotList struct {
	Date      string
	DateLabel string
	Service   string
	Slots     []schedule.Slot // available starts only
	Total     int
	Booked    int
	Info      string // "N of M time slots available" when anything is booked
	Empty     bool
	Phone     string
	Selected  string
}

// BuildSlots lists the starts still offered on day.
func BuildSlots(ctx context.Context, src schedule.Source, day time.Time, serviceID, phone string) (SlotList, error) {
	all, err := src.Slots(ctx, day, serviceID)
	if err != nil {
		return SlotList{}, err
	}
	list := SlotList{
		Date:      schedule.DateKey(day),
		DateLabel: LongDate(day),
		Service:   serviceID,
		Total:     len(all),
		Phone:     phone,
	}
	for _, s := range all {
		if s.Available {
			list.Slots = append(list.Slots, s)
		}
	}
	list.Booked = list.Total - len(list.Slots)
	list.Empty = len(list.Slots) == 0
	if !list.Empty && list.Booked > 0 {
		list.Info = fmt.Sprintf("%d of %d time slots available", len(list.Slots), list.Total)
	}
	return list, nil
}

// LongDate renders "Wednesday, June 4, 2025".
func LongDate(t time.Time) string { return t.Format("Monday, January 2, 2006") }
