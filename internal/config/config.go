package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // business time zone must resolve on minimal images

	"github.com/joho/godotenv"
)

// ErrMissingSquare is returned when forwarding to Square is switched on but
// the credentials are incomplete.
var ErrMissingSquare = errors.New("missing required Square API configuration")

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; nested structs group the values per component.
type Config struct {
	Env            string        // application environment (dev, test, prod)
	Port           string        // HTTP port to listen on
	LogLevel       string        // zap level (debug, info, warn, error)
	AllowedOrigins []string      // CORS origins allowed to call the API
	BodyLimit      string        // echo body limit, e.g. "1M"
	StaticDir      string        // optional directory with the marketing site
	AMQPURL        string        // RabbitMQ broker for appointment events
	ReceiptSecret  string        // HMAC secret for confirmation receipts
	ReceiptTTL     time.Duration // lifetime of a confirmation receipt

	Business BusinessConfig
	Booking  BookingConfig
	Square   SquareConfig
	Notify   NotifyConfig
}

// BusinessConfig is the public practice information shown in the widget.
type BusinessConfig struct {
	Name       string
	Email      string
	Phone      string
	Address    string
	BookingURL string // third-party booking page opened as a fallback
	Location   *time.Location
}

// BookingConfig carries the scheduling policy and the availability model.
type BookingConfig struct {
	MinAdvance       time.Duration
	MaxAdvance       time.Duration
	AvailabilityMode string // simulated | exclusions | square
	SimulationSeed   int64
	SimulationDays   int
}

// SquareConfig describes the Square Appointments integration.  Forward turns
// on server-side creation of bookings.
type SquareConfig struct {
	Forward           bool
	ApplicationID     string
	LocationID        string
	AccessToken       string
	Environment       string // sandbox | production
	BaseURL           string // overrides the environment default when set
	ServiceVariations map[string]string
}

// Configured reports whether enough credentials exist to call Square.
func (s SquareConfig) Configured() bool {
	return s.ApplicationID != "" && s.LocationID != "" && s.AccessToken != ""
}

// NotifyConfig controls the appointment notification email.
type NotifyConfig struct {
	Recipient      string
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// Load reads a .env file when one is present, then builds the Config from the
// process environment.  Invalid values are reported as an error so that main
// can refuse to start.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", envStr("PORT", "3001")),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"https://recoverykneads.com", "https://www.recoverykneads.com"}),
		BodyLimit:      envStr("BODY_LIMIT", "1M"),
		StaticDir:      envStr("STATIC_DIR", ""),
		AMQPURL:        envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
		ReceiptSecret:  envStr("RECEIPT_SECRET", ""),
		ReceiptTTL:     envDur("RECEIPT_TTL", 30*24*time.Hour),
		Business: BusinessConfig{
			Name:       envStr("BUSINESS_NAME", "Recovery Kneads"),
			Email:      envStr("BUSINESS_EMAIL", "massagebyerikag@gmail.com"),
			Phone:      envStr("BUSINESS_PHONE", "(239) 427-4757"),
			Address:    envStr("BUSINESS_ADDRESS", "8965 Tamiami Trail N, Suite #43, Naples, FL"),
			BookingURL: envStr("SQUARE_BOOKING_URL", "https://book.squareup.com/appointments/7kl091khfcdu9k/location/L6BYJ6PXFF95P/services"),
		},
		Booking: BookingConfig{
			MinAdvance:       envDur("BOOKING_MIN_ADVANCE", 24*time.Hour),
			MaxAdvance:       envDur("BOOKING_MAX_ADVANCE", 90*24*time.Hour),
			AvailabilityMode: strings.ToLower(envStr("AVAILABILITY_MODE", "simulated")),
			SimulationSeed:   envInt64("AVAILABILITY_SEED", 1),
			SimulationDays:   envInt("AVAILABILITY_WINDOW_DAYS", 30),
		},
		Square: SquareConfig{
			Forward:           envBool("SQUARE_FORWARD", false),
			ApplicationID:     envStr("SQUARE_APPLICATION_ID", ""),
			LocationID:        envStr("SQUARE_LOCATION_ID", ""),
			AccessToken:       envStr("SQUARE_ACCESS_TOKEN", ""),
			Environment:       strings.ToLower(envStr("SQUARE_ENVIRONMENT", "sandbox")),
			BaseURL:           envStr("SQUARE_BASE_URL", ""),
			ServiceVariations: envPairs("SQUARE_SERVICE_VARIATIONS"),
		},
		Notify: NotifyConfig{
			Recipient:      envStr("NOTIFICATION_EMAIL", ""),
			SendGridAPIKey: envStr("SENDGRID_API_KEY", ""),
			FromEmail:      envStr("NOTIFY_FROM_EMAIL", "no-reply@recoverykneads.com"),
			FromName:       envStr("NOTIFY_FROM_NAME", "Recovery Kneads"),
		},
	}

	loc, err := time.LoadLocation(envStr("BUSINESS_TIMEZONE", "America/New_York"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid BUSINESS_TIMEZONE: %w", err)
	}
	cfg.Business.Location = loc

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func (c *Config) validate() error {
	switch c.Booking.AvailabilityMode {
	case "simulated", "exclusions", "square":
	default:
		return fmt.Errorf("invalid AVAILABILITY_MODE: %q", c.Booking.AvailabilityMode)
	}
	if c.Booking.MinAdvance < 0 || c.Booking.MaxAdvance <= c.Booking.MinAdvance {
		return fmt.Errorf("invalid booking window: min=%s max=%s", c.Booking.MinAdvance, c.Booking.MaxAdvance)
	}
	if c.Booking.SimulationDays < 1 {
		c.Booking.SimulationDays = 30
	}
	switch c.Square.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("invalid SQUARE_ENVIRONMENT: %q", c.Square.Environment)
	}
	if (c.Square.Forward || c.Booking.AvailabilityMode == "square") && !c.Square.Configured() {
		return ErrMissingSquare
	}
	if c.ReceiptSecret == "" {
		if c.IsProduction() {
			return errors.New("missing required env var: RECEIPT_SECRET")
		}
		c.ReceiptSecret = "dev-receipt-secret"
	}
	return nil
}
