package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint for load balancers and monitoring.
// It returns plain text "ok" with a 200 status.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// CompatPing mirrors the JSON ping older mobile clients poll.
func CompatPing(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Notifications is a stub kept for client compatibility: the
// notification feed always reports empty until the feature ships.
func Notifications(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": []interface{}{}})
}
