package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recoverykneads/booking/internal/middleware"
	"github.com/recoverykneads/booking/internal/utils"
)

// GetReceipt returns the confirmation carried by a verified receipt.  It
// must run behind middleware.ReceiptAuth.
func GetReceipt(c echo.Context) error {
	claims, ok := c.Get(middleware.ReceiptKey).(*utils.ReceiptClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing receipt"})
	}
	resp := echo.Map{
		"success":               true,
		"appointmentId":         claims.Subject,
		"confirmationNumber":    claims.ConfirmationNumber,
		"service":               claims.Service,
		"serviceName":           claims.ServiceName,
		"date":                  claims.Date,
		"time":                  claims.Time,
		"estimatedConfirmation": EstimatedConfirmation,
	}
	if claims.ExpiresAt != nil {
		resp["expires"] = claims.ExpiresAt.Time
	}
	return c.JSON(http.StatusOK, resp)
}
