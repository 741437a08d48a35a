package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/KJ87SAT/Fortify-DashBoard/internal/platform/errors"
)

const oauthFailedMessage = "OAuth Failed"

func (s *Server) registerAuthRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.GET("/", s.handleHome)
	s.echo.GET("/login", s.handleLogin, rateLimiter)
	s.echo.GET("/callback", s.handleOAuthCallback, rateLimiter)
	s.echo.GET("/logout", s.handleLogout)
}

func (s *Server) handleHome(c echo.Context) error {
	_, err := s.sessionToken(c)
	data := map[string]any{
		"Authenticated": err == nil,
	}
	return s.renderTemplate(c, http.StatusOK, "login.html", data)
}

// handleLogin sends the browser to Discord's consent screen. No state
// parameter is attached, so the callback cannot detect forged logins.
func (s *Server) handleLogin(c echo.Context) error {
	if err := c.Redirect(http.StatusFound, s.oauth.AuthCodeURL()); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleOAuthCallback(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	if code == "" {
		return apperrors.AuthError(oauthFailedMessage, errors.New("missing code parameter"))
	}

	token, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return apperrors.AuthError(oauthFailedMessage, err)
	}

	if err := s.setSessionCookie(c, token); err != nil {
		return apperrors.InternalError("failed to sign session", err)
	}

	slog.InfoContext(ctx, "User logged in")

	if err := c.Redirect(http.StatusFound, "/servers"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	clearSessionCookie(c)

	if err := c.Redirect(http.StatusFound, "/"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}
