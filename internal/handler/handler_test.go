package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/logging"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(logging.Nop{})
	e.GET("/app", func(echo.Context) error { return apperr.Forbidden("nope") })
	e.GET("/echo", func(echo.Context) error { return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big") })
	e.GET("/boom", func(echo.Context) error { return errors.New("db password leaked in message") })

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/app", http.StatusForbidden, `{"error":"nope"}`},
		{"/echo", http.StatusRequestEntityTooLarge, `{"error":"too big"}`},
		{"/boom", http.StatusInternalServerError, `{"error":"internal server error"}`},
		{"/missing", http.StatusNotFound, `{"error":"Not Found"}`},
	}
	for _, tc := range tests {
		rec := serve(e, http.MethodGet, tc.path)
		assert.Equal(t, tc.code, rec.Code, tc.path)
		assert.JSONEq(t, tc.body, rec.Body.String(), tc.path)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/up", Health(pinger{}))
	e.GET("/down", Health(pinger{err: errors.New("refused")}))

	rec := serve(e, http.MethodGet, "/up")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/down")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","database":"down"}`, rec.Body.String())
}
