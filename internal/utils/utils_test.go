package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppointmentID(t *testing.T) {
	a, err := NewAppointmentID()
	require.NoError(t, err)
	b, err := NewAppointmentID()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestConfirmationNumber(t *testing.T) {
	now := time.UnixMilli(1718000123456)
	assert.Equal(t, "RK123456", ConfirmationNumber(now))
}

func TestReceipt_RoundTrip(t *testing.T) {
	now := time.Now()
	r, err := NewReceipt("s3cret", "abc123", ReceiptClaims{
		Service: "sports-60", Date: "2025-06-03", Time: "10:00", ConfirmationNumber: "RK000001",
	}, now, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), r.Exp, time.Second)

	c, err := ParseReceipt("s3cret", r.Token)
	require.NoError(t, err)
	assert.Equal(t, "abc123", c.Subject)
	assert.Equal(t, "sports-60", c.Service)
	assert.Equal(t, "10:00", c.Time)
}

func TestParseReceipt_Rejects(t *testing.T) {
	r, err := NewReceipt("s3cret", "abc123", ReceiptClaims{}, time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = ParseReceipt("other", r.Token)
	assert.ErrorIs(t, err, ErrInvalidReceipt)

	expired, err := NewReceipt("s3cret", "abc123", ReceiptClaims{}, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = ParseReceipt("s3cret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidReceipt)

	_, err = ParseReceipt("s3cret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidReceipt)
}
