package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recoverykneads/booking/internal/model"
)

// PublicService is a catalog entry as shown to visitors.
type PublicService struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	Price           string `json:"price"`
	Description     string `json:"description"`
}

// GetServices returns the bookable services in display order.
func GetServices(c echo.Context) error {
	all := model.Services()
	out := make([]PublicService, 0, len(all))
	for _, s := range all {
		out = append(out, PublicService{
			ID:              s.ID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			Price:           s.Price(),
			Description:     s.Description,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "services": out})
}
