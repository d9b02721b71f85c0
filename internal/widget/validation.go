package widget

import (
	"regexp"
	"strings"
	"time"

	"github.com/recoverykneads/booking/internal/schedule"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Details are the contact fields of the last step.
type Details struct {
	Name      string
	Email     string
	Phone     string
	Notes     string
	NewClient bool
	Consent   bool
}

// FieldError is an inline form error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateDetails applies the in-browser checks before anything is sent.  A
// nil result means the form can be submitted.
func ValidateDetails(d Details, date, today time.Time) []FieldError {
	var errs []FieldError
	if len(strings.TrimSpace(d.Name)) < 2 {
		errs = append(errs, FieldError{Field: "name", Message: "Name must be at least 2 characters"})
	}
	if !emailPattern.MatchString(strings.TrimSpace(d.Email)) {
		errs = append(errs, FieldError{Field: "email", Message: "Please enter a valid email address"})
	}
	if len(nonDigits.ReplaceAllString(d.Phone, "")) != 10 {
		errs = append(errs, FieldError{Field: "phone", Message: "Please enter a valid 10-digit phone number"})
	}
	if !d.Consent {
		errs = append(errs, FieldError{Field: "consent", Message: "Please agree to the cancellation policy"})
	}
	if date.IsZero() || schedule.DateOf(date).Before(schedule.DateOf(today)) {
		errs = append(errs, FieldError{Field: "date", Message: "Please select a future date"})
	}
	return errs
}
