package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports liveness with a timestamp.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339Nano)})
}

// Healthz is the plain text check used by load balancers.
func Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
