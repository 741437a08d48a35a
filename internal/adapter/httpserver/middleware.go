package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/correlation"
	apperrors "github.com/KJ87SAT/Fortify-DashBoard/internal/platform/errors"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.Header))
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}

// errorHandlingMiddleware turns every handler error, router errors included,
// into a logged entry and a rendered error page.
func (s *Server) errorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				s.handleError(err, c)
			}
			return nil
		}
	}
}

// handleError is also installed as echo's HTTPErrorHandler, which catches
// middleware that reports through c.Error instead of returning, such as the
// rate limiter.
func (s *Server) handleError(err error, c echo.Context) {
	status, structuredErr := classifyError(err)
	logError(c, structuredErr, status)

	if c.Response().Committed {
		return
	}
	if err := s.renderError(c, status, structuredErr.Message); err != nil {
		slog.ErrorContext(c.Request().Context(), "Failed to render error page", "error", err)
	}
}

func classifyError(err error) (int, *apperrors.Error) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, WrapHTTPError(httpErr)
	}
	structuredErr := apperrors.AsStructuredError(err)
	return structuredErr.HTTPStatus(), structuredErr
}

func (s *Server) renderError(c echo.Context, status int, message string) error {
	data := map[string]any{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	}
	return s.renderTemplate(c, status, "error.html", data)
}

func logError(c echo.Context, err *apperrors.Error, status int) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", status,
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	ctx := c.Request().Context()
	switch err.Type {
	case apperrors.TypeValidation:
		slog.InfoContext(ctx, "Validation error", attrs...)
	case apperrors.TypeNotFound:
		slog.InfoContext(ctx, "Not found", attrs...)
	case apperrors.TypeAuth:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.WarnContext(ctx, "Authentication failed", attrs...)
	case apperrors.TypeForbidden:
		slog.InfoContext(ctx, "Forbidden", attrs...)
	case apperrors.TypeConflict:
		slog.WarnContext(ctx, "Conflict", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Internal error", attrs...)
	case apperrors.TypeExternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "External service error", attrs...)
	default:
		slog.ErrorContext(ctx, "Unknown error type", attrs...)
	}
}

// WrapHTTPError maps an echo error (router 404/405, rate limiter, recovered
// panic) onto the structured error types used for logging.
func WrapHTTPError(httpErr *echo.HTTPError) *apperrors.Error {
	message := http.StatusText(httpErr.Code)
	if msg, ok := httpErr.Message.(string); ok && msg != "" {
		message = msg
	}

	var errType apperrors.ErrorType
	switch httpErr.Code {
	case http.StatusBadRequest, http.StatusTooManyRequests, http.StatusMethodNotAllowed:
		errType = apperrors.TypeValidation
	case http.StatusUnauthorized:
		errType = apperrors.TypeAuth
	case http.StatusForbidden:
		errType = apperrors.TypeForbidden
	case http.StatusNotFound:
		errType = apperrors.TypeNotFound
	case http.StatusConflict:
		errType = apperrors.TypeConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		errType = apperrors.TypeExternal
	default:
		errType = apperrors.TypeInternal
	}

	err := &apperrors.Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]any),
	}

	if httpErr.Internal != nil {
		err.Cause = httpErr.Internal
	}

	return err
}
