package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/adapter/metrics"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/config"
	"github.com/KJ87SAT/Fortify-DashBoard/web"
)

type appService interface {
	ManageableGuilds(ctx context.Context, accessToken string) []domain.Guild
	Settings(ctx context.Context, guildID string) (*domain.GuildSettings, error)
	UpdateProtection(ctx context.Context, guildID string, spamEnabled, joinRaidEnabled bool) (*domain.GuildSettings, error)
}

type oauthClient interface {
	AuthCodeURL() string
	ExchangeCode(ctx context.Context, code string) (string, error)
}

type sessionCodec interface {
	Encode(token string) (string, error)
	Decode(blob string) (string, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app   appService
	oauth oauthClient
	codec sessionCodec

	templates *template.Template

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	healthChecks   []HealthCheck
	clock          clockwork.Clock
	startTime      time.Time
}

type Option func(*Server)

func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) { s.healthChecks = checks }
}

// WithMetrics instruments every route and serves the registry on /metrics.
func WithMetrics(m *metrics.HTTPMetrics, handler http.Handler) Option {
	return func(s *Server) {
		s.httpMetrics = m
		s.metricsHandler = handler
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

func NewServer(cfg *config.Config, app appService, oauth oauthClient, codec sessionCodec, opts ...Option) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		oauth:     oauth,
		codec:     codec,
		templates: templates,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.startTime = srv.clock.Now()

	e.HTTPErrorHandler = srv.handleError
	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP lets tests and embedding code drive the router directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) renderTemplate(c echo.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "template", name, "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(status, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
