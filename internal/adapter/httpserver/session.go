package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/session"
)

const contextKeyAccessToken = "accessToken"

var errNoSession = errors.New("no session cookie")

// setSessionCookie stores the signed access token. SameSite=None requires
// Secure, so the cookie is always Secure.
func (s *Server) setSessionCookie(c echo.Context, token string) error {
	blob, err := s.codec.Encode(token)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    blob,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	return nil
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// sessionToken returns the access token from the request's session cookie.
func (s *Server) sessionToken(c echo.Context) (string, error) {
	cookie, err := c.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return "", errNoSession
	}
	return s.codec.Decode(cookie.Value)
}

// requireAuth sends anonymous visitors to the login prompt. A cookie that
// fails verification is cleared.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := s.sessionToken(c)
		if err != nil {
			if errors.Is(err, session.ErrInvalidSignature) {
				slog.WarnContext(c.Request().Context(), "Rejected session cookie", "error", err)
				clearSessionCookie(c)
			}
			return c.Redirect(http.StatusFound, "/")
		}

		c.Set(contextKeyAccessToken, token)
		return next(c)
	}
}
