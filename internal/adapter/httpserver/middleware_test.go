package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/correlation"
	apperrors "github.com/KJ87SAT/Fortify-DashBoard/internal/platform/errors"
)

func TestMiddlewareWithStructuredError(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), rec)

	err := callHandler(srv, func(c echo.Context) error {
		return apperrors.ForbiddenError("Bot is not in this server.")
	}, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bot is not in this server.")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
}

func TestMiddlewareWithStandardError(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), rec)

	err := callHandler(srv, func(c echo.Context) error {
		return errors.New("standard error")
	}, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "standard error", "causes are logged, not rendered")
}

func TestMiddlewareWithEchoHTTPError(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), rec)

	err := callHandler(srv, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTooManyRequests, "slow down")
	}, c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "slow down")
}

func TestMiddlewareNoError(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), rec)

	err := callHandler(srv, func(c echo.Context) error {
		return c.String(http.StatusOK, "fine")
	}, c)

	require.NoError(t, err)
	assert.Equal(t, "fine", rec.Body.String())
}

func TestUnknownRouteRendersErrorPage(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "404 Not Found")
}

func TestWrapHTTPError(t *testing.T) {
	tests := []struct {
		code     int
		wantType apperrors.ErrorType
	}{
		{http.StatusBadRequest, apperrors.TypeValidation},
		{http.StatusUnauthorized, apperrors.TypeAuth},
		{http.StatusForbidden, apperrors.TypeForbidden},
		{http.StatusNotFound, apperrors.TypeNotFound},
		{http.StatusConflict, apperrors.TypeConflict},
		{http.StatusBadGateway, apperrors.TypeExternal},
		{http.StatusInternalServerError, apperrors.TypeInternal},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			wrapped := WrapHTTPError(echo.NewHTTPError(tt.code))
			assert.Equal(t, tt.wantType, wrapped.Type)
			assert.Equal(t, http.StatusText(tt.code), wrapped.Message)
		})
	}
}

func TestWrapHTTPError_KeepsInternalCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := WrapHTTPError(echo.NewHTTPError(http.StatusInternalServerError, "failed").SetInternal(cause))

	assert.Equal(t, "failed", wrapped.Message)
	assert.ErrorIs(t, wrapped, cause)
}

func TestCorrelationMiddleware(t *testing.T) {
	e := echo.New()

	t.Run("generates an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		var got string
		err := correlationMiddleware(func(c echo.Context) error {
			got, _ = correlation.ID(c.Request().Context())
			return nil
		})(c)

		require.NoError(t, err)
		assert.Len(t, got, 8)
		assert.Equal(t, got, rec.Header().Get(correlation.Header))
	})

	t.Run("propagates a well-formed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(correlation.Header, "req-123")
		c := e.NewContext(req, httptest.NewRecorder())

		var got string
		require.NoError(t, correlationMiddleware(func(c echo.Context) error {
			got, _ = correlation.ID(c.Request().Context())
			return nil
		})(c))

		assert.Equal(t, "req-123", got)
	})
}
