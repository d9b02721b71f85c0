// Package square talks to the Square Appointments REST API: catalog,
// availability search and bookings.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ProductionURL = "https://connect.squareup.com"
	SandboxURL    = "https://connect.squareupsandbox.com"
	APIVersion    = "2023-12-13"

	defaultTimeout         = 15 * time.Second
	defaultDurationMinutes = 45
	defaultPriceCents      = 9000
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("square: not found")

// APIError is a non-2xx response from Square.
type APIError struct {
	Status int
	Errors []Error
	Body   string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("square API returned %d: %s %s", e.Status, e.Errors[0].Code, e.Errors[0].Detail)
	}
	return fmt.Sprintf("square API returned %d: %s", e.Status, e.Body)
}

func (e *APIError) Is(target error) bool { return target == ErrNotFound && e.Status == http.StatusNotFound }

// Client is a bearer-token Square REST client scoped to one location.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	locationID  string
	logger      *zap.Logger
}

// BaseURLFor maps an environment name to its API host.
func BaseURLFor(environment string) string {
	if strings.EqualFold(environment, "production") {
		return ProductionURL
	}
	return SandboxURL
}

// NewClient constructs a Square client.  An empty baseURL selects the sandbox.
func NewClient(baseURL, accessToken, locationID string, logger *zap.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = SandboxURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		locationID:  locationID,
		logger:      logger,
	}
}

// LocationID returns the location the client books into.
func (c *Client) LocationID() string { return c.locationID }

// ListServices returns the catalog items of product type
// APPOINTMENTS_SERVICE.  Missing prices default to $90 and missing durations
// to 45 minutes.
func (c *Client) ListServices(ctx context.Context) ([]CatalogService, error) {
	var out []CatalogService
	cursor := ""
	for {
		q := url.Values{}
		q.Set("types", "ITEM")
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var page struct {
			Objects []CatalogObject `json:"objects"`
			Cursor  string          `json:"cursor"`
		}
		if err := c.doJSON(ctx, http.MethodGet, "/v2/catalog/list?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("list services: %w", err)
		}
		for _, obj := range page.Objects {
			if obj.Type != "ITEM" || obj.ItemData == nil || obj.ItemData.ProductType != "APPOINTMENTS_SERVICE" {
				continue
			}
			out = append(out, toCatalogService(obj))
		}
		if page.Cursor == "" {
			return out, nil
		}
		cursor = page.Cursor
	}
}

func toCatalogService(obj CatalogObject) CatalogService {
	svc := CatalogService{
		ID:              obj.ID,
		Name:            obj.ItemData.Name,
		Description:     obj.ItemData.Description,
		DurationMinutes: defaultDurationMinutes,
		PriceCents:      defaultPriceCents,
	}
	if len(obj.ItemData.Variations) == 0 {
		return svc
	}
	v := obj.ItemData.Variations[0]
	svc.VariationID = v.ID
	svc.VariationVer = v.Version
	if vd := v.ItemVariationData; vd != nil {
		applyVariation(&svc, vd)
	}
	return svc
}

func applyVariation(svc *CatalogService, vd *ItemVariationData) {
	if vd.PriceMoney != nil && vd.PriceMoney.Amount > 0 {
		svc.PriceCents = vd.PriceMoney.Amount
	}
	if vd.ServiceDuration > 0 {
		svc.DurationMinutes = int(vd.ServiceDuration / int64(time.Minute/time.Millisecond))
	}
}

// SearchAvailability returns bookable starts in [from, to) for one service
// variation at the client's location.
func (c *Client) SearchAvailability(ctx context.Context, from, to time.Time, serviceVariationID string) ([]Availability, error) {
	type segmentFilter struct {
		ServiceVariationID string `json:"service_variation_id"`
	}
	body := map[string]any{
		"query": map[string]any{
			"filter": map[string]any{
				"start_at_range": map[string]string{
					"start_at": from.UTC().Format(time.RFC3339),
					"end_at":   to.UTC().Format(time.RFC3339),
				},
				"location_id":     c.locationID,
				"segment_filters": []segmentFilter{{ServiceVariationID: serviceVariationID}},
			},
		},
	}
	var resp struct {
		Availabilities []Availability `json:"availabilities"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v2/bookings/availability/search", body, &resp); err != nil {
		return nil, fmt.Errorf("search availability: %w", err)
	}
	return resp.Availabilities, nil
}

type bookingEnvelope struct {
	Booking        *Booking `json:"booking"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// CreateBooking creates a booking at the client's location.
func (c *Client) CreateBooking(ctx context.Context, b Booking) (*Booking, error) {
	if b.LocationID == "" {
		b.LocationID = c.locationID
	}
	var resp bookingEnvelope
	req := bookingEnvelope{Booking: &b, IdempotencyKey: IdempotencyKey(time.Now())}
	if err := c.doJSON(ctx, http.MethodPost, "/v2/bookings", req, &resp); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if resp.Booking == nil {
		return nil, errors.New("create booking: empty response")
	}
	return resp.Booking, nil
}

// GetBooking retrieves a booking by id.
func (c *Client) GetBooking(ctx context.Context, id string) (*Booking, error) {
	var resp bookingEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/v2/bookings/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if resp.Booking == nil {
		return nil, ErrNotFound
	}
	return resp.Booking, nil
}

// UpdateBooking applies the set fields of b to booking id.
func (c *Client) UpdateBooking(ctx context.Context, id string, b Booking) (*Booking, error) {
	var resp bookingEnvelope
	req := bookingEnvelope{Booking: &b, IdempotencyKey: IdempotencyKey(time.Now())}
	if err := c.doJSON(ctx, http.MethodPut, "/v2/bookings/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return resp.Booking, nil
}

// CancelBooking cancels booking id.  version is the booking version the
// caller last saw; zero skips the optimistic check.
func (c *Client) CancelBooking(ctx context.Context, id string, version int64) (*Booking, error) {
	body := map[string]any{"idempotency_key": IdempotencyKey(time.Now())}
	if version > 0 {
		body["booking_version"] = version
	}
	var resp bookingEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/v2/bookings/"+url.PathEscape(id)+"/cancel", body, &resp); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	return resp.Booking, nil
}

// RetrieveLocation fetches the client's location.
func (c *Client) RetrieveLocation(ctx context.Context) (*Location, error) {
	var resp struct {
		Location *Location `json:"location"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v2/locations/"+url.PathEscape(c.locationID), nil, &resp); err != nil {
		return nil, fmt.Errorf("retrieve location: %w", err)
	}
	if resp.Location == nil {
		return nil, ErrNotFound
	}
	return resp.Location, nil
}

// IdempotencyKey returns "rk_<unix-ms>_<random>".
func IdempotencyKey(now time.Time) string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "rk_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + r[:9]
}

// ConfirmationNumber is the last eight characters of a booking id,
// upper-cased.
func ConfirmationNumber(bookingID string) string {
	if len(bookingID) > 8 {
		bookingID = bookingID[len(bookingID)-8:]
	}
	return strings.ToUpper(bookingID)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Square-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		apiErr := &APIError{Status: resp.StatusCode, Body: msg}
		var wrapped struct {
			Errors []Error `json:"errors"`
		}
		if json.Unmarshal(respBody, &wrapped) == nil {
			apiErr.Errors = wrapped.Errors
		}
		c.logger.Warn("square API non-2xx response",
			zap.Int("status", resp.StatusCode),
			zap.String("method", method),
			zap.String("path", strings.SplitN(path, "?", 2)[0]),
		)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
