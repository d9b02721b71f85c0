package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidReceipt is returned for receipts that fail signature, expiry or
// shape checks.
var ErrInvalidReceipt = errors.New("invalid receipt")

// ReceiptClaims describe an accepted appointment request.  The receipt lets
// the widget redisplay its confirmation without the proxy storing anything.
type ReceiptClaims struct {
	Service            string `json:"service"`
	ServiceName        string `json:"service_name,omitempty"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	ConfirmationNumber string `json:"confirmation_number"`
	jwt.RegisteredClaims
}

// Receipt is a signed receipt along with its expiry.
type Receipt struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires"`
}

// NewReceipt signs an HS256 receipt for an appointment id.  The subject is
// the appointment id; issued-at and expiry are set from now and ttl.
func NewReceipt(secret, appointmentID string, c ReceiptClaims, now time.Time, ttl time.Duration) (Receipt, error) {
	exp := now.UTC().Add(ttl)
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   appointmentID,
		Issuer:    "recoverykneads-booking",
		IssuedAt:  jwt.NewNumericDate(now.UTC()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Token: signed, Exp: exp}, nil
}

// ParseReceipt verifies a receipt and returns its claims.  Only HMAC
// signatures are accepted.
func ParseReceipt(secret, raw string) (*ReceiptClaims, error) {
	claims := &ReceiptClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidReceipt
		}
		return []byte(secret), nil
	}, jwt.WithIssuer("recoverykneads-booking"))
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidReceipt
	}
	return claims, nil
}
