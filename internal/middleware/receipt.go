package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recoverykneads/booking/internal/utils"
)

// ReceiptKey is the context key holding *utils.ReceiptClaims.
const ReceiptKey = "receipt"

// ReceiptAuth verifies a confirmation receipt passed as a Bearer token or a
// token query parameter and stores its claims in the context.
func ReceiptAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.QueryParam("token")
			if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing receipt"})
			}
			claims, err := utils.ParseReceipt(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid receipt"})
			}
			c.Set(ReceiptKey, claims)
			return next(c)
		}
	}
}
