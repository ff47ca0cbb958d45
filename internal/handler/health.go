package handler // HTTP handlers

import (
    "context"      // bounded ping
    "database/sql" // the pool being checked
    "net/http"     // status codes
    "time"         // ping timeout

    "github.com/labstack/echo/v4" // echo context
)

// HealthHandler reports liveness plus database reachability for load
// balancers and monitoring.
type HealthHandler struct {
    DB *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

// Check answers 200 {"status":"ok"} when the database answers a ping
// within two seconds, 503 otherwise.
func (h *HealthHandler) Check(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    if h.DB != nil {
        if err := h.DB.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "database": "down"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "up"})
}
