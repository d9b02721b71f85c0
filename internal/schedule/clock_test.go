package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("9:30")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 9, Minute: 30}, c)
	assert.Equal(t, "09:30", c.String())
	assert.Equal(t, "9:30 AM", c.Label())

	for _, bad := range []string{"", "24:00", "9:5", "noon", "12:60"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}

func TestClockLabel(t *testing.T) {
	assert.Equal(t, "12:00 PM", Clock{Hour: 12}.Label())
	assert.Equal(t, "12:30 AM", Clock{Hour: 0, Minute: 30}.Label())
	assert.Equal(t, "6:00 PM", Clock{Hour: 18}.Label())
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	d, err := ParseDate("2025-03-10", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, loc), d)

	// 02:00Z on the 11th is still the 10th in Naples
	d, err = ParseDate("2025-03-11T02:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", DateKey(d))

	_, err = ParseDate("03/10/2025", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}
