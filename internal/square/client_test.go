package square

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, "tok-123", "LOC1", nil)
}

func TestClient_SendsAuthAndVersion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, APIVersion, r.Header.Get("Square-Version"))
		assert.Equal(t, "/v2/locations/LOC1", r.URL.Path)
		_, _ = w.Write([]byte(`{"location":{"id":"LOC1","name":"Recovery Kneads","status":"ACTIVE","timezone":"America/New_York"}}`))
	})

	loc, err := client.RetrieveLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", loc.Status)
}

func TestClient_ListServices_FiltersAndDefaults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ITEM", r.URL.Query().Get("types"))
		_, _ = w.Write([]byte(`{"objects":[
			{"id":"I1","type":"ITEM","item_data":{"name":"Deep Tissue","product_type":"APPOINTMENTS_SERVICE",
				"variations":[{"id":"V1","type":"ITEM_VARIATION","version":7,"item_variation_data":{"price_money":{"amount":13000,"currency":"USD"},"service_duration":5400000}}]}},
			{"id":"I2","type":"ITEM","item_data":{"name":"Gift Card","product_type":"REGULAR"}},
			{"id":"I3","type":"ITEM","item_data":{"name":"Consult","product_type":"APPOINTMENTS_SERVICE"}}
		]}`))
	})

	services, err := client.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)

	assert.Equal(t, "V1", services[0].VariationID)
	assert.Equal(t, int64(7), services[0].VariationVer)
	assert.Equal(t, int64(13000), services[0].PriceCents)
	assert.Equal(t, 90, services[0].DurationMinutes)

	assert.Equal(t, int64(9000), services[1].PriceCents)
	assert.Equal(t, 45, services[1].DurationMinutes)
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"NOT_FOUND","detail":"no booking"}]}`))
	})

	_, err := client.GetBooking(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Errors[0].Code)
}

func TestClient_CancelBooking(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/bookings/BK1/cancel", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["booking_version"])
		assert.True(t, strings.HasPrefix(body["idempotency_key"].(string), "rk_"))
		_, _ = w.Write([]byte(`{"booking":{"id":"BK1","status":"CANCELLED_BY_SELLER"}}`))
	})

	b, err := client.CancelBooking(context.Background(), "BK1", 3)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED_BY_SELLER", b.Status)
}

func TestClient_UpdateBooking(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v2/bookings/BK1", r.URL.Path)
		var got bookingEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.NotNil(t, got.Booking)
		assert.Equal(t, "2025-06-05T14:00:00Z", got.Booking.StartAt)
		assert.NotEmpty(t, got.IdempotencyKey)
		_, _ = w.Write([]byte(`{"booking":{"id":"BK1","status":"ACCEPTED","start_at":"2025-06-05T14:00:00Z"}}`))
	})

	b, err := client.UpdateBooking(context.Background(), "BK1", Booking{StartAt: "2025-06-05T14:00:00Z"})
	require.NoError(t, err)
	start, err := b.Start()
	require.NoError(t, err)
	assert.Equal(t, 5, start.Day())
}

func TestForwarder_CreatesBooking(t *testing.T) {
	var got bookingEnvelope
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bookings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"booking":{"id":"abcdefgh12345678","status":"PENDING"}}`))
	})
	fwd := NewForwarder(client, map[string]string{"deep-tissue-90": "VAR90"})

	appt := model.Appointment{
		Request: model.BookingRequest{
			Name: "Mary Ann Smith", Email: "mary@example.com", Phone: "2395550100",
			Service: "deep-tissue-90", NewClient: true, Notes: "left shoulder",
		},
		Start:    time.Date(2025, 6, 4, 10, 0, 0, 0, time.FixedZone("EDT", -4*3600)),
		Duration: 90 * time.Minute,
	}
	id, err := fwd.Forward(context.Background(), appt)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh12345678", id)
	assert.Equal(t, "12345678", ConfirmationNumber(id))

	require.NotNil(t, got.Booking)
	assert.Equal(t, "LOC1", got.Booking.LocationID)
	assert.Equal(t, "2025-06-04T14:00:00Z", got.Booking.StartAt)
	assert.Equal(t, 90, got.Booking.AppointmentSegments[0].DurationMinutes)
	assert.Equal(t, "VAR90", got.Booking.AppointmentSegments[0].ServiceVariationID)
	assert.Equal(t, "Mary Ann", got.Booking.CustomerDetails.GivenName)
	assert.Equal(t, "Smith", got.Booking.CustomerDetails.FamilyName)
	assert.Contains(t, got.Booking.SellerNote, "Booking made through Recovery Kneads website")
	assert.NotEmpty(t, got.IdempotencyKey)
}

func TestForwarder_UnmappedService(t *testing.T) {
	fwd := NewForwarder(NewClient("http://127.0.0.1:1", "t", "L", nil), nil)
	_, err := fwd.Forward(context.Background(), model.Appointment{Request: model.BookingRequest{Service: "sports-60"}})
	assert.ErrorIs(t, err, ErrUnmappedService)
}

func TestAvailabilitySource_Slots(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bookings/availability/search", r.URL.Path)
		_, _ = w.Write([]byte(`{"availabilities":[
			{"start_at":"2025-06-04T09:00:00Z","location_id":"LOC1"},
			{"start_at":"2025-06-04T14:30:00Z","location_id":"LOC1"}
		]}`))
	})
	src := NewAvailabilitySource(client, map[string]string{"therapeutic-60": "V60"})
	src.Now = func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) }

	day := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	slots, err := src.Slots(context.Background(), day, "therapeutic-60")
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.True(t, slots[0].Available)

	var open []string
	for _, s := range slots {
		if s.Available {
			open = append(open, s.Time)
		}
	}
	assert.Equal(t, []string{"09:00", "14:30"}, open)

	sunday, err := src.Slots(context.Background(), time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), "therapeutic-60")
	require.NoError(t, err)
	assert.Empty(t, sunday)
}

func TestAvailabilitySource_SlotsRange(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body struct {
			Query struct {
				Filter struct {
					StartAtRange struct {
						StartAt string `json:"start_at"`
						EndAt   string `json:"end_at"`
					} `json:"start_at_range"`
				} `json:"filter"`
			} `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-06-02T00:00:00Z", body.Query.Filter.StartAtRange.StartAt)
		assert.Equal(t, "2025-07-01T00:00:00Z", body.Query.Filter.StartAtRange.EndAt)
		_, _ = w.Write([]byte(`{"availabilities":[
			{"start_at":"2025-06-04T09:00:00Z"},
			{"start_at":"2025-06-04T10:00:00Z"},
			{"start_at":"2025-06-20T15:30:00Z"}
		]}`))
	})
	src := NewAvailabilitySource(client, map[string]string{"sports-60": "V60"})
	src.Now = func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) }

	days, err := src.SlotsRange(context.Background(),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "sports-60")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NotContains(t, days, "2025-06-08")
	assert.Equal(t, 2, schedule.CountAvailable(days["2025-06-04"]))
	assert.Equal(t, 1, schedule.CountAvailable(days["2025-06-20"]))
	assert.Equal(t, 0, schedule.CountAvailable(days["2025-06-05"]))
	assert.Len(t, days, 25)
}

func TestAvailabilitySource_NextAvailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"availabilities":[{"start_at":"2025-06-04T15:00:00Z"},{"start_at":"2025-06-04T16:00:00Z"}]}`))
	})
	src := NewAvailabilitySource(client, map[string]string{"therapeutic-60": "V60"})

	sum, err := src.NextAvailable(context.Background(), time.Date(2025, 6, 4, 11, 0, 0, 0, time.UTC), "therapeutic-60")
	require.NoError(t, err)
	assert.True(t, sum.Success)
	assert.Equal(t, 2, sum.AvailableSlots)
	assert.Equal(t, "3:00 PM", sum.NextAvailableTime)

	none, err := src.NextAvailable(context.Background(), time.Now(), "sports-60")
	assert.ErrorIs(t, err, ErrUnmappedService)
	assert.Equal(t, NoAvailability, none.NextAvailableTime)
}

func TestIdempotencyKey(t *testing.T) {
	now := time.UnixMilli(1717430400123)
	key := IdempotencyKey(now)
	assert.True(t, strings.HasPrefix(key, "rk_1717430400123_"))
	assert.Len(t, key, len("rk_1717430400123_")+9)
	assert.NotEqual(t, key, IdempotencyKey(now))
	assert.Equal(t, SandboxURL, BaseURLFor("sandbox"))
	assert.Equal(t, ProductionURL, BaseURLFor("Production"))
}
