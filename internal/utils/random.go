package utils // package utils provides identifier and receipt helpers

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// RandomHex returns a hex string made of n bytes of cryptographically secure
// random data (2n characters).
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewAppointmentID returns the opaque 32 character id handed back to the
// widget.  It is not tracked anywhere.
func NewAppointmentID() (string, error) { return RandomHex(16) }

// ConfirmationNumber is the display-only number shown on the confirmation
// step: "RK" followed by the last six digits of the unix millisecond clock.
func ConfirmationNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "RK" + ms
}
