package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/handler"    // catalog handlers
	"github.com/iliyamo/cinema-ticketing/internal/middleware" // JWT, role and cache middleware
	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// RegisterCatalog registers the public movie listing, served through the
// response cache, and the MANAGER-only catalog and session endpoints.
func RegisterCatalog(e *echo.Echo, m *handler.MovieHandler, cache *middleware.ResponseCache, jwtSecret string) {
	public := e.Group("/v1/movies", cache.Middleware())
	public.GET("", m.List)
	public.GET("/:id", m.Get)

	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager),
	)

	// ---- Movies ----
	g.POST("/movies", m.Create)
	g.POST("/movies/bulk", m.BulkCreate)
	g.POST("/movies/bulk-delete", m.BulkDelete)
	g.PUT("/movies/:id", m.Update)
	g.DELETE("/movies/:id", m.Delete) // soft delete

	// ---- Sessions ----
	g.POST("/movies/:id/sessions", m.AddSession)
	g.DELETE("/movies/:id/sessions", m.DeleteSessions) // every session of the movie
	g.DELETE("/sessions/:id", m.DeleteSession)
}
