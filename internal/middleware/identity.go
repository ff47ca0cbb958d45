package middleware

// identity.go holds the context keys written by JWTAuth and the helpers
// that read them back in handlers and in the other middleware.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// Context keys set by JWTAuth.
const (
    ContextUserID = "user_id"
    ContextRole   = "role"
)

const guestID = "guest"

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c echo.Context) string {
    id, _ := c.Get(ContextUserID).(string)
    return id
}

// Role returns the role claim of the access token, or "" when absent.
func Role(c echo.Context) model.Role {
    r, _ := c.Get(ContextRole).(string)
    return model.Role(r)
}

// identity keys per-client state such as rate-limit buckets: the user id
// when authenticated, "guest" otherwise.
func identity(c echo.Context) string {
    if id := UserID(c); id != "" {
        return id
    }
    return guestID
}
