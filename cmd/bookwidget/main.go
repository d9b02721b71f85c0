// Command bookwidget walks the booking wizard against a running proxy.  It
// picks the first open day and time unless -date and -time are given, prints
// the summary, and submits the request only with -book.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/logger"
	"github.com/recoverykneads/booking/internal/schedule"
	"github.com/recoverykneads/booking/internal/widget"
)

type options struct {
	proxy   string
	service string
	date    string
	clock   string
	book    bool
	timeout time.Duration
	details widget.Details
}

func main() {
	var o options
	flag.StringVar(&o.proxy, "proxy", "http://localhost:3001", "booking proxy base URL")
	flag.StringVar(&o.service, "service", "therapeutic-60", "service id")
	flag.StringVar(&o.date, "date", "", "day to book (YYYY-MM-DD); first open day when empty")
	flag.StringVar(&o.clock, "time", "", "start time (HH:MM); first open start when empty")
	flag.BoolVar(&o.book, "book", false, "submit the request")
	flag.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall timeout")
	flag.StringVar(&o.details.Name, "name", "", "client name")
	flag.StringVar(&o.details.Email, "email", "", "client email")
	flag.StringVar(&o.details.Phone, "phone", "", "client phone")
	flag.StringVar(&o.details.Notes, "notes", "", "notes for the therapist")
	flag.BoolVar(&o.details.NewClient, "new-client", false, "first visit")
	flag.BoolVar(&o.details.Consent, "consent", false, "agree to the booking policy")
	flag.Parse()

	zl, err := logger.New(false, envOr("LOG_LEVEL", "info"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	code := run(o, zl)
	_ = zl.Sync()
	os.Exit(code)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// run returns 1 when the proxy cannot be reached or nothing can be picked,
// and 2 when the proxy refuses the request.
func run(o options, zl *zap.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	client := widget.NewAPIClient(o.proxy)
	flow := widget.NewFlow(widget.RemoteSource{Client: client}, widget.Business{}, time.Local, time.Now)

	if err := flow.SelectService(o.service); err != nil {
		zl.Error("select service", zap.String("service", o.service), zap.Error(err))
		return 1
	}
	day, err := pickDay(ctx, flow, o.date)
	if err != nil {
		zl.Error("select date", zap.Error(err))
		return 1
	}
	if err := flow.SelectDate(ctx, day); err != nil {
		zl.Error("select date", zap.String("date", schedule.DateKey(day)), zap.Error(err))
		return 1
	}

	slots, err := flow.TimeSlots(ctx)
	if err != nil {
		zl.Error("load time slots", zap.Error(err))
		return 1
	}
	fmt.Printf("%s: %d of %d starts open\n", slots.DateLabel, len(slots.Slots), slots.Total)
	start := o.clock
	if start == "" {
		if len(slots.Slots) == 0 {
			zl.Error("no open starts", zap.String("date", slots.Date))
			return 1
		}
		start = slots.Slots[0].Time
	}
	if err := flow.SelectTime(ctx, start); err != nil {
		zl.Error("select time", zap.String("time", start), zap.Error(err))
		return 1
	}

	s := flow.Summary()
	fmt.Printf("%s\n%s at %s, %s\n", s.Label, s.Date, s.Time, s.Price)
	if !o.book {
		return 0
	}

	conf, fields, err := flow.Submit(ctx, o.details, client)
	for _, f := range fields {
		fmt.Printf("%s: %s\n", f.Field, f.Message)
	}
	if err != nil {
		var rej *widget.RejectedError
		if errors.As(err, &rej) && rej.Message != widget.NetworkMessage {
			fmt.Println(rej.Message)
			return 2
		}
		if errors.Is(err, widget.ErrInvalidDetails) {
			return 2
		}
		zl.Error("submit", zap.Error(err))
		return 1
	}
	fmt.Printf("%s\nconfirmation %s (appointment %s)\n", conf.Message, conf.Number, conf.AppointmentID)
	return 0
}

// pickDay parses raw, or scans this month and the next for the first day the
// calendar offers.
func pickDay(ctx context.Context, flow *widget.Flow, raw string) (time.Time, error) {
	if raw != "" {
		return schedule.ParseDate(raw, time.Local)
	}
	for i := 0; i < 2; i++ {
		m, err := flow.Calendar(ctx)
		if err != nil {
			return time.Time{}, err
		}
		for _, d := range m.Days {
			if d.InMonth && d.Selectable {
				return d.Date, nil
			}
		}
		flow.NextMonth()
	}
	return time.Time{}, errors.New("no open day in the next two months")
}
