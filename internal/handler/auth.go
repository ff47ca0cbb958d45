package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticketing/internal/apperr"
    "github.com/iliyamo/cinema-ticketing/internal/middleware"
    "github.com/iliyamo/cinema-ticketing/internal/service"
)

// AuthHandler serves registration, login and token rotation.
type AuthHandler struct {
    Auth  *service.AuthService
    Users *service.UserService
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService) *AuthHandler {
    return &AuthHandler{Auth: auth, Users: users}
}

// ----- DTOs -----

// newUserReq has no role field; the route decides it.
type newUserReq struct {
    Username string `json:"username" validate:"required,max=100"`
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=6,max=72"`
    Age      *int   `json:"age" validate:"required,gte=0,lte=150"`
}

func (r newUserReq) toService() service.NewUserRequest {
    return service.NewUserRequest{Username: r.Username, Email: r.Email, Password: r.Password, Age: *r.Age}
}

type loginReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register creates a CUSTOMER and returns a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
    var req newUserReq
    if err := bind(c, &req); err != nil {
        return err
    }
    res, err := h.Auth.Register(c.Request().Context(), req.toService())
    if err != nil {
        return err
    }
    return respond(c, http.StatusCreated, res)
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bind(c, &req); err != nil {
        return err
    }
    res, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, res)
}

// Refresh rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := bind(c, &req); err != nil {
        return err
    }
    res, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
    if err != nil {
        return err
    }
    return respond(c, http.StatusOK, res)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := bind(c, &req); err != nil {
        return err
    }
    if err := h.Auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
        return err
    }
    return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every refresh token of the caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
    id := middleware.UserID(c)
    if id == "" {
        return apperr.UserNotAuthorized
    }
    if err := h.Auth.LogoutAll(c.Request().Context(), id); err != nil {
        return err
    }
    return c.NoContent(http.StatusNoContent)
}

// CreateManager lets a manager create another manager account.
func (h *AuthHandler) CreateManager(c echo.Context) error {
    var req newUserReq
    if err := bind(c, &req); err != nil {
        return err
    }
    u, err := h.Users.CreateManager(c.Request().Context(), req.toService())
    if err != nil {
        return err
    }
    return respond(c, http.StatusCreated, u)
}

// principal loads the caller named by the access token.  A token whose user
// no longer exists is treated as unauthenticated.
func principal(c echo.Context, users *service.UserService) (service.Principal, error) {
    id := middleware.UserID(c)
    if id == "" {
        return service.Principal{}, apperr.UserNotAuthorized
    }
    u, err := users.FindByID(c.Request().Context(), id)
    if err != nil {
        if apperr.IsNotFound(err) {
            return service.Principal{}, apperr.UserNotAuthorized
        }
        return service.Principal{}, err
    }
    return service.Principal{ID: u.ID, Email: u.Email, Age: u.Age, Role: u.Role}, nil
}
