package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fallousenghor/visit-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.Validation("bad"), http.StatusBadRequest},
		{service.Unauthorized("who"), http.StatusUnauthorized},
		{service.Forbidden("no"), http.StatusForbidden},
		{service.NotFound("gone"), http.StatusNotFound},
		{service.Conflict("email", "taken"), http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, Error(c, tt.err, false))
		assert.Equal(t, tt.status, rec.Code)
		env := decode(t, rec)
		assert.False(t, env.Success)
		assert.NotEmpty(t, env.Message)
	}
}

func TestErrorRedactsInternalOutsideDevelopment(t *testing.T) {
	e := echo.New()
	cause := errors.New("pq: connection refused")

	rec := httptest.NewRecorder()
	require.NoError(t, Error(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), cause, false))
	assert.Empty(t, decode(t, rec).Error)

	rec = httptest.NewRecorder()
	require.NoError(t, Error(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), cause, true))
	assert.Equal(t, "pq: connection refused", decode(t, rec).Error)
}

func TestHTTPErrorHandlerWrapsRouteErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(false)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Not Found", env.Message)
}
