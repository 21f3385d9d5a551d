package handler

import (
	"net/http"
	"time"

	"github.com/fallousenghor/visit-backend/internal/respond"
	"github.com/labstack/echo/v4"
)

type healthStatus struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports liveness with the current server time.
func Health(serviceName, version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return respond.Success(c, "service is healthy", healthStatus{
			Status:    "ok",
			Service:   serviceName,
			Version:   version,
			Timestamp: time.Now().UTC(),
		})
	}
}

// Banner answers the bare root path.
func Banner(serviceName string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": serviceName + " API",
			"health":  "/api/v1/health",
		})
	}
}
