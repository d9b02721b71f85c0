package booking

import (
	"errors"
	"html"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/recoverykneads/booking/internal/model"
	"github.com/recoverykneads/booking/internal/schedule"
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,15}$`)
)

// One message per field, whatever rule failed.
var fieldMessages = map[string]string{
	"name":    "Invalid name format",
	"email":   "Invalid email address",
	"phone":   "Invalid phone number format",
	"service": "Invalid service selection",
	"date":    "Invalid date format",
	"time":    "Invalid time format",
	"notes":   "Notes too long",
}

// FieldError is a validation failure attached to one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failing field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string { return "validation failed" }

// ErrValidation matches any *ValidationError with errors.Is.
var ErrValidation = errors.New("validation failed")

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	rules := map[string]validator.Func{
		"personname": func(fl validator.FieldLevel) bool { return namePattern.MatchString(fl.Field().String()) },
		"phone":      func(fl validator.FieldLevel) bool { return phonePattern.MatchString(fl.Field().String()) },
		"serviceid": func(fl validator.FieldLevel) bool {
			_, ok := model.LookupService(fl.Field().String())
			return ok
		},
		"isodate": func(fl validator.FieldLevel) bool {
			_, err := schedule.ParseDate(fl.Field().String(), time.UTC)
			return err == nil
		},
		"clock": func(fl validator.FieldLevel) bool { return schedule.ValidClock(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// Normalize trims every text field and lower-cases the email.  Notes are
// escaped separately, after validation, so the length rule sees what the
// visitor typed.
func Normalize(req model.BookingRequest) model.BookingRequest {
	req.Name = strings.Join(strings.Fields(req.Name), " ")
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Service = strings.TrimSpace(req.Service)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Notes = strings.TrimSpace(req.Notes)
	return req
}

// Validate checks a normalised request and returns one FieldError per
// failing field, in struct order.  A nil result means the request is valid.
func Validate(req model.BookingRequest) []FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "request", Message: "Invalid request"}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = "Invalid value"
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// escapeNotes HTML-escapes the free-text notes before they leave the proxy.
func escapeNotes(s string) string { return html.EscapeString(s) }
