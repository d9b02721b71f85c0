package widget

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderCalendar writes the month grid fragment.
func RenderCalendar(w io.Writer, m Month) error { return templates.ExecuteTemplate(w, "calendar", m) }

// RenderSlots writes the time slot fragment.
func RenderSlots(w io.Writer, l SlotList) error { return templates.ExecuteTemplate(w, "slots", l) }

// RenderSummary writes the booking recap.
func RenderSummary(w io.Writer, s Summary) error { return templates.ExecuteTemplate(w, "summary", s) }

type confirmationView struct {
	Confirmation
	Address string
	Phone   string
}

// RenderConfirmation writes the final step with the practice contact details.
func RenderConfirmation(w io.Writer, c Confirmation, b Business) error {
	return templates.ExecuteTemplate(w, "confirmation", confirmationView{Confirmation: c, Address: b.Address, Phone: b.Phone})
}
