package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewHTTPErrorHandler maps errors that escape the handlers to the JSON
// envelope.  Unknown routes become 404 "Endpoint not found"; echo HTTP
// errors below 500 keep their status and message; everything else is a 500.
func NewHTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := "Internal server error"

		var he *echo.HTTPError
		switch {
		case errors.Is(err, echo.ErrNotFound), errors.Is(err, echo.ErrMethodNotAllowed):
			status, message = http.StatusNotFound, "Endpoint not found"
		case errors.As(err, &he) && he.Code < http.StatusInternalServerError:
			status = he.Code
			message = http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			}
		default:
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"success": false, "message": message})
		}
		if err != nil {
			log.Warn("write error response failed", zap.Error(err))
		}
	}
}
