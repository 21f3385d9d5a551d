// Package handler exposes the services over the versioned REST API.
package handler

import (
	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bind decodes and validates a request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return service.Validation("invalid request body")
	}
	return c.Validate(req)
}

// pathID parses a UUID path parameter.
func pathID(c echo.Context, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, service.Validation("invalid " + what + " id")
	}
	return id, nil
}
