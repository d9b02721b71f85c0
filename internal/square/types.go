package square

import "time"

// Money is an amount in the smallest currency unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// CatalogObject is the subset of a catalog ITEM needed to list appointment
// services.
type CatalogObject struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Version  int64     `json:"version,omitempty"`
	ItemData *ItemData `json:"item_data,omitempty"`

	// set on ITEM_VARIATION objects
	ItemVariationData *ItemVariationData `json:"item_variation_data,omitempty"`
}

type ItemData struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ProductType string          `json:"product_type,omitempty"`
	Variations  []CatalogObject `json:"variations,omitempty"`
}

type ItemVariationData struct {
	ItemID          string `json:"item_id,omitempty"`
	Name            string `json:"name,omitempty"`
	PriceMoney      *Money `json:"price_money,omitempty"`
	ServiceDuration int64  `json:"service_duration,omitempty"` // milliseconds
}

// CatalogService is an appointment service as offered on Square.
type CatalogService struct {
	ID              string
	VariationID     string
	VariationVer    int64
	Name            string
	Description     string
	DurationMinutes int
	PriceCents      int64
}

// AppointmentSegment is one service block within a booking.
type AppointmentSegment struct {
	DurationMinutes         int    `json:"duration_minutes"`
	ServiceVariationID      string `json:"service_variation_id"`
	ServiceVariationVersion int64  `json:"service_variation_version,omitempty"`
	TeamMemberID            string `json:"team_member_id,omitempty"`
}

// CustomerDetails identifies the visitor on a booking.
type CustomerDetails struct {
	GivenName    string `json:"given_name,omitempty"`
	FamilyName   string `json:"family_name,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Booking mirrors the Square booking object.
type Booking struct {
	ID                  string               `json:"id,omitempty"`
	Version             int64                `json:"version,omitempty"`
	Status              string               `json:"status,omitempty"`
	LocationID          string               `json:"location_id,omitempty"`
	StartAt             string               `json:"start_at,omitempty"`
	DurationMinutes     int                  `json:"duration_minutes,omitempty"`
	AppointmentSegments []AppointmentSegment `json:"appointment_segments,omitempty"`
	CustomerDetails     *CustomerDetails     `json:"customer_details,omitempty"`
	CustomerNote        string               `json:"customer_note,omitempty"`
	SellerNote          string               `json:"seller_note,omitempty"`
	Source              string               `json:"source,omitempty"`
}

// Start parses StartAt.
func (b Booking) Start() (time.Time, error) { return time.Parse(time.RFC3339, b.StartAt) }

// Availability is one bookable start returned by availability search.
type Availability struct {
	StartAt             string               `json:"start_at"`
	LocationID          string               `json:"location_id"`
	AppointmentSegments []AppointmentSegment `json:"appointment_segments,omitempty"`
}

// Location is the subset of a Square location shown by squarecheck.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Timezone string `json:"timezone"`
}

// Error is one entry of a Square error response.
type Error struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}
