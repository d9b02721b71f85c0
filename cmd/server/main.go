package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/booking"
	"github.com/recoverykneads/booking/internal/config"
	"github.com/recoverykneads/booking/internal/handler"
	"github.com/recoverykneads/booking/internal/logger"
	"github.com/recoverykneads/booking/internal/metrics"
	"github.com/recoverykneads/booking/internal/middleware"
	"github.com/recoverykneads/booking/internal/notify"
	"github.com/recoverykneads/booking/internal/queue"
	"github.com/recoverykneads/booking/internal/router"
	"github.com/recoverykneads/booking/internal/schedule"
	"github.com/recoverykneads/booking/internal/square"
	"github.com/recoverykneads/booking/internal/widget"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		zl.Info("redis unavailable; using in-process rate limiting and no response cache")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var sq *square.Client
	if cfg.Square.Configured() {
		baseURL := cfg.Square.BaseURL
		if baseURL == "" {
			baseURL = square.BaseURLFor(cfg.Square.Environment)
		}
		sq = square.NewClient(baseURL, cfg.Square.AccessToken, cfg.Square.LocationID, zl)
	}

	src, sqAvail := availabilitySource(cfg, sq)
	zl.Info("availability source", zap.String("mode", cfg.Booking.AvailabilityMode))

	var sender notify.EmailSender = notify.NewLogSender(zl)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.Notify.SendGridAPIKey,
		FromEmail: cfg.Notify.FromEmail,
		FromName:  cfg.Notify.FromName,
	}, zl); sg != nil {
		sender = sg
	}
	notifier := notify.NewNotifier(sender, cfg.Notify.Recipient, zl)

	opts := []booking.Option{}
	if cfg.Square.Forward && sq != nil {
		opts = append(opts, booking.WithForwarder(square.NewForwarder(sq, cfg.Square.ServiceVariations)))
	}
	if cfg.AMQPURL != "" {
		opts = append(opts, booking.WithPublisher(queue.NewPublisher(cfg.AMQPURL, zl)))
		go func() {
			if err := queue.StartConsumer(ctx, cfg.AMQPURL, notifier.AppointmentRequested, zl); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("appointment consumer stopped", zap.Error(err))
			}
		}()
	} else {
		opts = append(opts, booking.WithPublisher(notifier))
	}
	policy := booking.Policy{
		Location:   cfg.Business.Location,
		MinAdvance: cfg.Booking.MinAdvance,
		MaxAdvance: cfg.Booking.MaxAdvance,
	}
	svc := booking.NewService(policy, zl, opts...)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, handler.DateTag(cfg.Business.Location), zl)
	bm := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	bookings := handler.NewBookingHandler(svc, cfg.ReceiptSecret, cfg.ReceiptTTL, cache, zl)
	bookings.Metrics = bm

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, router.Deps{
		Config:    cfg,
		Log:       zl,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     cache,
		Metrics:   bm,
		Gatherer:  prometheus.DefaultGatherer,
		Booking:   bookings,
		Availability: &handler.AvailabilityHandler{
			Source:   src,
			Square:   sqAvail,
			Location: cfg.Business.Location,
			Log:      zl,
		},
		Widget: &handler.WidgetHandler{
			Source: src,
			Business: widget.Business{
				Name:       cfg.Business.Name,
				Phone:      cfg.Business.Phone,
				Address:    cfg.Business.Address,
				BookingURL: cfg.Business.BookingURL,
			},
			Location: cfg.Business.Location,
			Log:      zl,
		},
	})

	addr := ":" + cfg.Port
	go func() {
		zl.Info("booking proxy listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}

// availabilitySource picks the schedule source for the configured mode.  The
// Square source is also returned for the next-available summary when the
// client exists.
func availabilitySource(cfg config.Config, sq *square.Client) (schedule.Source, *square.AvailabilitySource) {
	now := func() time.Time { return time.Now().In(cfg.Business.Location) }

	var sqAvail *square.AvailabilitySource
	if sq != nil {
		sqAvail = square.NewAvailabilitySource(sq, cfg.Square.ServiceVariations)
		sqAvail.Now = now
	}
	switch cfg.Booking.AvailabilityMode {
	case "square":
		return sqAvail, sqAvail
	case "exclusions":
		return schedule.DefaultExclusions(now), sqAvail
	default:
		return schedule.NewSimulated(cfg.Booking.SimulationSeed, cfg.Booking.SimulationDays, now), sqAvail
	}
}
