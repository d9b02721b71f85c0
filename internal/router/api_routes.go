package router

import (
	"github.com/labstack/echo/v4"

	"github.com/recoverykneads/booking/internal/handler"
	"github.com/recoverykneads/booking/internal/middleware"
)

// RegisterAPI registers the booking proxy endpoints under /api.  Every route
// is rate limited; availability responses are cached.
func RegisterAPI(e *echo.Echo, d Deps, limit echo.MiddlewareFunc) {
	g := e.Group("/api", limit)

	g.POST("/book-appointment", d.Booking.BookAppointment)
	g.GET("/availability", d.Availability.GetAvailability, d.Cache.Middleware())
	g.GET("/square-availability", d.Availability.GetSquareAvailability)
	g.GET("/services", handler.GetServices)
	g.GET("/appointments/receipt", handler.GetReceipt, middleware.ReceiptAuth(d.Config.ReceiptSecret))
}
