package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoverykneads/booking/internal/booking"
	"github.com/recoverykneads/booking/internal/config"
	"github.com/recoverykneads/booking/internal/handler"
	"github.com/recoverykneads/booking/internal/metrics"
	"github.com/recoverykneads/booking/internal/middleware"
	"github.com/recoverykneads/booking/internal/schedule"
)

// Monday 2 June 2025, 10:00.
var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func testDeps(rdb *redis.Client, capacity int) Deps {
	now := func() time.Time { return testNow }
	src := schedule.NewSimulated(7, 30, now)
	svc := booking.NewService(booking.Policy{Location: time.UTC, MinAdvance: 24 * time.Hour, MaxAdvance: 90 * 24 * time.Hour},
		nil, booking.WithClock(now))
	cache := middleware.NewRedisCache(config.CacheConfig{
		Enabled: true,
		Methods: map[string]bool{http.MethodGet: true},
		TTL:     time.Minute,
		Prefix:  "cache",
	}, rdb, handler.DateTag(time.UTC), nil)

	return Deps{
		Config: config.Config{
			AllowedOrigins: []string{"https://recoverykneads.com"},
			BodyLimit:      "1M",
			ReceiptSecret:  "secret",
			ReceiptTTL:     time.Hour,
		},
		Redis: rdb,
		RateLimit: config.RateLimitConfig{
			Enabled:        true,
			Capacity:       capacity,
			RefillTokens:   1,
			RefillInterval: time.Hour,
			TTL:            5 * time.Hour,
			KeyStrategy:    "ip",
			Prefix:         "rl",
		},
		Cache:        cache,
		Booking:      handler.NewBookingHandler(svc, "secret", time.Hour, cache, nil),
		Availability: &handler.AvailabilityHandler{Source: src, Location: time.UTC, Now: now},
		Widget:       &handler.WidgetHandler{Source: src, Location: time.UTC, Now: now},
	}
}

func serve(e *echo.Echo, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterRoutes_NotFound(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, testDeps(nil, 100))

	for _, path := range []string{"/missing", "/api/missing"} {
		rec := serve(e, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Endpoint not found", body["message"], path)
	}
}

func TestRegisterRoutes_HealthIsNotRateLimited(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, testDeps(nil, 1))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/health", nil).Code)
	}
}

func TestRegisterRoutes_RateLimitsAPI(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, testDeps(nil, 2))

	path := "/api/availability?date=2025-06-04&service=sports-60"
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, path, nil).Code)

	rec := serve(e, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, middleware.RateLimitMessage, body["message"])
}

func TestRegisterRoutes_CachesAvailability(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	RegisterRoutes(e, testDeps(rdb, 100))

	path := "/api/availability?service=sports-60&date=2025-06-04"
	first := serve(e, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := serve(e, http.MethodGet, "/api/availability?date=2025-06-04&service=sports-60", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "98", second.Header().Get("X-RateLimit-Remaining"))
}

func TestRegisterRoutes_CORSAndSecureHeaders(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, testDeps(nil, 100))

	rec := serve(e, http.MethodOptions, "/api/book-appointment", map[string]string{
		echo.HeaderOrigin:                     "https://recoverykneads.com",
		echo.HeaderAccessControlRequestMethod: http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://recoverykneads.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost)

	rec = serve(e, http.MethodGet, "/health", map[string]string{echo.HeaderOrigin: "https://evil.example"})
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestRegisterRoutes_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := testDeps(nil, 100)
	d.Metrics = metrics.NewBookingMetrics(reg)
	d.Gatherer = reg
	d.Booking.Metrics = d.Metrics

	e := echo.New()
	RegisterRoutes(e, d)

	req := httptest.NewRequest(http.MethodPost, "/api/book-appointment", strings.NewReader(`{"name":"J"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `recoverykneads_booking_requests_total{outcome="invalid",service="unknown"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/book-appointment"`)
}

func TestRegisterRoutes_WidgetConfirmationNeedsReceipt(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e, testDeps(nil, 100))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/widget/confirmation", nil).Code)
	rec := serve(e, http.MethodGet, "/widget/summary?service=sports-60&date=2025-06-08&time=09:00", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
