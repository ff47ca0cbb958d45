package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticketing/internal/service"
)

// TicketHandler serves checkout, ticket lookup and watch.
type TicketHandler struct {
    Tickets *service.TicketService
    Users   *service.UserService
}

func NewTicketHandler(tickets *service.TicketService, users *service.UserService) *TicketHandler {
    return &TicketHandler{Tickets: tickets, Users: users}
}

type checkoutReq struct {
    SessionID string `json:"sessionId" validate:"required"`
}

// Checkout buys a ticket for the caller.
func (h *TicketHandler) Checkout(c echo.Context) error {
    var req checkoutReq
    if err := bind(c, &req); err != nil {
        return err
    }
    p, err := principal(c, h.Users)
    if err != nil {
        return err
    }
    t, err := h.Tickets.Checkout(c.Request().Context(), p, req.SessionID)
    if err != nil {
        return err
    }
    return respond(c, http.StatusCreated, t)
}

// Get returns a ticket to its owner or to a manager.
func (h *TicketHandler) Get(c echo.Context) error {
    p, err := principal(c, h.Users)
    if err != nil {
        return err
    }
    t, err := h.Tickets.GetTicket(c.Request().Context(), p, c.Param("id"))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, t)
}

// Watch consumes the caller's ticket.
func (h *TicketHandler) Watch(c echo.Context) error {
    p, err := principal(c, h.Users)
    if err != nil {
        return err
    }
    t, err := h.Tickets.Watch(c.Request().Context(), p, c.Param("id"))
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, t)
}
