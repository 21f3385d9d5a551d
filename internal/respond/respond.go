// Package respond writes the JSON envelope shared by every endpoint.
package respond

import (
	"errors"
	"net/http"

	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/fallousenghor/visit-backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func Success(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope with an explicit status.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}

// Status maps a service error kind onto an HTTP status.
func Status(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as an envelope. Internal details are only exposed when
// exposeInternal is set.
func Error(c echo.Context, err error, exposeInternal bool) error {
	var se *service.Error
	if !errors.As(err, &se) {
		se = service.Internal("internal server error", err)
	}

	status := Status(se.Kind)
	body := Envelope{Success: false, Message: se.Message}
	if status >= http.StatusInternalServerError {
		logger.FromEcho(c).Error("Request failed", zap.Error(err))
		if exposeInternal && se.Err != nil {
			body.Error = se.Err.Error()
		}
	}
	return c.JSON(status, body)
}

// HTTPErrorHandler renders framework and handler errors in the envelope.
func HTTPErrorHandler(exposeInternal bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok && m != "" {
				msg = m
			}
			body := Envelope{Success: false, Message: msg}
			if he.Internal != nil && exposeInternal {
				body.Error = he.Internal.Error()
			}
			if he.Code >= http.StatusInternalServerError {
				logger.FromEcho(c).Error("Request failed", zap.Error(err))
			}
			if c.Request().Method == http.MethodHead {
				_ = c.NoContent(he.Code)
				return
			}
			_ = c.JSON(he.Code, body)
			return
		}

		_ = Error(c, err, exposeInternal)
	}
}
