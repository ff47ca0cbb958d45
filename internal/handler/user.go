package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticketing/internal/service"
)

// UserHandler serves the caller's own profile and watch history.
type UserHandler struct {
    Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
    return &UserHandler{Users: users}
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
    p, err := principal(c, h.Users)
    if err != nil {
        return err
    }
    u, err := h.Users.FindByID(c.Request().Context(), p.ID)
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, u)
}

// WatchHistory returns the movies the caller has watched.
func (h *UserHandler) WatchHistory(c echo.Context) error {
    p, err := principal(c, h.Users)
    if err != nil {
        return err
    }
    movies, err := h.Users.GetWatchHistory(c.Request().Context(), p.ID)
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, movies)
}
