package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
)

// Result is what the proxy returns for an accepted request.
type Result struct {
	AppointmentID         string `json:"appointmentId"`
	Message               string `json:"message"`
	EstimatedConfirmation string `json:"estimatedConfirmation"`
	ConfirmationNumber    string `json:"confirmationNumber"`
	Receipt               string `json:"receipt"`
}

// Submitter sends a booking request on behalf of the flow.
type Submitter interface {
	Book(ctx context.Context, req model.BookingRequest) (Result, error)
}

// RejectedError is a refusal reported by the proxy.  Message is meant for
// the visitor.
type RejectedError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *RejectedError) Error() string { return fmt.Sprintf("booking rejected (%d): %s", e.Status, e.Message) }

// NetworkMessage is shown when the proxy cannot be reached.
const NetworkMessage = "Network error. Please check your connection and try again."

// APIClient talks to the booking proxy.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAPIClient targets the proxy at baseURL, e.g. "https://recoverykneads.com".
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type apiResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
	Result
}

// Book posts the request to /api/book-appointment.
func (c *APIClient) Book(ctx context.Context, req model.BookingRequest) (Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/book-appointment", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")

	var out apiResponse
	status, err := c.do(httpReq, &out)
	if err != nil {
		return Result{}, err
	}
	if !out.Success || status != http.StatusCreated {
		msg := out.Message
		if msg == "" {
			msg = "Booking failed. Please try again."
		}
		return Result{}, &RejectedError{Status: status, Message: msg, Fields: out.Errors}
	}
	out.Result.Message = out.Message
	return out.Result, nil
}

// AvailabilityEntry is one start from /api/availability.
type AvailabilityEntry struct {
	Time      string `json:"time"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// Availability reads /api/availability for a date and service.
func (c *APIClient) Availability(ctx context.Context, date, service string) ([]AvailabilityEntry, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("service", service)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/availability?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	var out struct {
		Success      bool                `json:"success"`
		Message      string              `json:"message"`
		Availability []AvailabilityEntry `json:"availability"`
	}
	status, err := c.do(httpReq, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !out.Success {
		return nil, &RejectedError{Status: status, Message: out.Message}
	}
	return out.Availability, nil
}

var errNoBody = errors.New("empty response")

func (c *APIClient) do(req *http.Request, out any) (int, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if len(body) == 0 {
		return resp.StatusCode, errNoBody
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// RemoteSource reads slots from the proxy's /api/availability, so a Flow
// can run outside the server process.
type RemoteSource struct {
	Client *APIClient
}

// Slots implements schedule.Source.  Entries with an unparseable time are
// skipped.
func (s RemoteSource) Slots(ctx context.Context, day time.Time, serviceID string) ([]schedule.Slot, error) {
	entries, err := s.Client.Availability(ctx, schedule.DateKey(day), serviceID)
	if err != nil {
		return nil, err
	}
	out := make([]schedule.Slot, 0, len(entries))
	for _, e := range entries {
		c, err := schedule.ParseClock(e.Time)
		if err != nil {
			continue
		}
		out = append(out, schedule.Slot{Clock: c, Time: c.String(), Label: c.Label(), Available: e.Available})
	}
	return out, nil
}
