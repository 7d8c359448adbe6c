// Package handler contains the HTTP handlers. Handlers bind request DTOs,
// validate at the boundary, delegate to repositories and services, and map
// sentinel errors to status codes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers and monitoring.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// reqContext bounds a handler's database work to five seconds.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
