// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/config"
	"github.com/recoverykneads/booking/internal/handler"
	"github.com/recoverykneads/booking/internal/metrics"
	"github.com/recoverykneads/booking/internal/middleware"
)

// Deps are the collaborators the routes need.  Redis, Cache and Metrics may
// be nil; /metrics is only served when Gatherer is set.
type Deps struct {
	Config       config.Config
	Log          *zap.Logger
	Redis        *redis.Client
	RateLimit    config.RateLimitConfig
	Cache        *middleware.ResponseCache
	Metrics      *metrics.BookingMetrics
	Gatherer     prometheus.Gatherer
	Booking      *handler.BookingHandler
	Availability *handler.AvailabilityHandler
	Widget       *handler.WidgetHandler
}

// RegisterRoutes installs the global middleware and the health endpoints,
// then the API and widget routes.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log)

	e.Use(echomw.Recover())
	if d.Metrics != nil {
		e.Use(middleware.Metrics(d.Metrics))
	}
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Requested-With"},
	}))
	e.Use(echomw.BodyLimit(d.Config.BodyLimit))

	e.GET("/health", handler.Health)
	e.GET("/healthz", handler.Healthz)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	limit := rateLimiter(d)
	RegisterAPI(e, d, limit)
	RegisterWidget(e, d, limit)

	if d.Config.StaticDir != "" {
		e.Static("/", d.Config.StaticDir)
	}
}

// rateLimiter builds the token bucket shared by the API and widget routes.
func rateLimiter(d Deps) echo.MiddlewareFunc {
	if !d.RateLimit.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
}
