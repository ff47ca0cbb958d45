package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinema-ticketing/internal/apperr"
    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// RequireRole lets the request through only when the role stored by JWTAuth
// is one of roles.  It must run after JWTAuth; other requests fail with
// FORBIDDEN_ROLE.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[Role(c)] {
                return apperr.ForbiddenRole
            }
            return next(c)
        }
    }
}
