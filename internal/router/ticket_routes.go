package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// RegisterTickets registers the ticket endpoints under /v1/tickets.  Any
// authenticated user may buy and watch tickets; ownership is checked by the
// ticket service.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, jwtSecret string) {
	g := e.Group(
		"/v1/tickets",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleManager),
	)
	g.POST("", h.Checkout)
	g.GET("/:id", h.Get)
	g.POST("/:id/watch", h.Watch)
}
