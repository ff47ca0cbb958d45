package router // package router registers the HTTP routes of the API

import (
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/cinema-ticketing/internal/handler"    // HTTP handlers
	"github.com/iliyamo/cinema-ticketing/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/cinema-ticketing/internal/model"      // roles
)

// RegisterRoutes registers routes that need neither authentication nor
// caching.  Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Check)
}

// RegisterAuth registers the token endpoints under /v1/auth, the manager
// creation endpoint and the caller's own profile under /v1/users/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, jwtSecret string) {
	// Register, login, refresh and logout work without an access token;
	// logout takes the refresh token in the body.  logout-all signs the
	// caller out everywhere and needs the access token.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/logout-all", a.LogoutAll, middleware.JWTAuth(jwtSecret))

	// Only managers may create managers.
	g.POST("/managers", a.CreateManager,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager),
	)

	me := e.Group("/v1/users/me",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleManager),
	)
	me.GET("", u.Me)
	me.GET("/watch-history", u.WatchHistory)
}
