package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/queue"
)

type captureSender struct {
	msgs []Email
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Email) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

var testEvent = queue.AppointmentRequestedEvent{
	AppointmentID:   "a1b2",
	Service:         "deep-tissue-90",
	ServiceName:     "Deep Tissue Massage",
	Date:            "2025-06-04",
	Time:            "10:00",
	DurationMinutes: 90,
	NewClient:       true,
}

func TestNotifier_AppointmentRequested(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, " owner@example.com ", nil)

	require.NoError(t, n.AppointmentRequested(context.Background(), testEvent))
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, "New Appointment Request", msg.Subject)
	assert.Contains(t, msg.Text, "New appointment request for Deep Tissue Massage on 2025-06-04 at 10:00")
	assert.Contains(t, msg.Text, "Duration: 90 minutes")
	assert.Contains(t, msg.Text, "New client: yes")
}

func TestNotifier_DisabledWithoutRecipient(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "", nil)

	assert.False(t, n.Enabled())
	require.NoError(t, n.AppointmentRequested(context.Background(), testEvent))
	assert.Empty(t, sender.msgs)
}

func TestNotifier_PropagatesSendError(t *testing.T) {
	boom := errors.New("quota")
	n := NewNotifier(&captureSender{err: boom}, "owner@example.com", nil)
	assert.ErrorIs(t, n.AppointmentRequested(context.Background(), testEvent), boom)
}

func TestNotifier_PublishAppointmentRequested(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "owner@example.com", nil)

	appt := model.Appointment{
		ID:       "c0ffee",
		Request:  model.BookingRequest{Service: "sports-60", Date: "2025-06-04", Time: "09:30"},
		Duration: time.Hour,
	}
	require.NoError(t, n.PublishAppointmentRequested(context.Background(), appt))
	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0].Text, "New appointment request for Sports Massage on 2025-06-04 at 09:30")
	assert.Contains(t, sender.msgs[0].Text, "Reference: c0ffee")
}

func TestNewSendGridSender_RequiresKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, nil))

	var s *SendGridSender
	assert.Error(t, s.Send(context.Background(), Email{To: "x@example.com"}))
}

func TestSendGridSender_Send(t *testing.T) {
	var auth string
	var payload struct {
		Subject    string   `json:"subject"`
		Categories []string `json:"categories"`
		Content    []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	s := NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "no-reply@example.com"}, nil)
	require.NotNil(t, s)
	s.client.BaseURL = ts.URL + "/v3/mail/send"

	require.NoError(t, s.Send(context.Background(), Email{To: "owner@example.com", Subject: "hi", Text: "hello"}))
	assert.Equal(t, "Bearer SG.test", auth)
	assert.Equal(t, "hi", payload.Subject)
	assert.Equal(t, []string{"appointment-request"}, payload.Categories)
	require.Len(t, payload.Content, 1)
	assert.Equal(t, "text/plain", payload.Content[0].Type)
	assert.Equal(t, "hello", payload.Content[0].Value)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(nil).Send(context.Background(), Email{Subject: "s"}))
}
