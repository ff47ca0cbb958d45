package middleware // middleware holds the echo middleware shared by every route group

import (
    "strings" // strings trims the Bearer prefix

    "github.com/labstack/echo/v4" // echo middleware signatures

    "github.com/iliyamo/cinema-ticketing/internal/apperr" // USER_NOT_AUTHORIZED for rejected tokens
    "github.com/iliyamo/cinema-ticketing/internal/utils"  // access token verification
)

const bearerPrefix = "Bearer "

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores its subject and role claims under ContextUserID and
// ContextRole.  Requests without a valid token fail with
// USER_NOT_AUTHORIZED, rendered by the application error handler.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, bearerPrefix) {
                return apperr.UserNotAuthorized.WithMessage("Missing bearer token")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, bearerPrefix))

            // ParseAccessToken rejects non-HMAC algorithms, expired
            // tokens and tokens without a subject.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return apperr.UserNotAuthorized.WithMessage("Invalid or expired access token")
            }

            c.Set(ContextUserID, claims.Subject)
            c.Set(ContextRole, claims.Role)
            return next(c)
        }
    }
}
