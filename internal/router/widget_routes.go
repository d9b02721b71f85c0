package router

import (
	"github.com/labstack/echo/v4"

	"github.com/recoverykneads/booking/internal/middleware"
)

// RegisterWidget registers the HTML fragments of the booking widget.
func RegisterWidget(e *echo.Echo, d Deps, limit echo.MiddlewareFunc) {
	g := e.Group("/widget", limit)
	g.GET("/calendar", d.Widget.Calendar, d.Cache.Middleware())
	g.GET("/slots", d.Widget.Slots, d.Cache.Middleware())
	g.GET("/summary", d.Widget.Summary)
	g.GET("/confirmation", d.Widget.Confirmation, middleware.ReceiptAuth(d.Config.ReceiptSecret))
}
