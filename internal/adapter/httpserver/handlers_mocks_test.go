package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/config"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/session"
)

// --- Mock implementations ---

type mockAppService struct {
	manageableGuildsFn func(ctx context.Context, accessToken string) []domain.Guild
	settingsFn         func(ctx context.Context, guildID string) (*domain.GuildSettings, error)
	updateProtectionFn func(ctx context.Context, guildID string, spamEnabled, joinRaidEnabled bool) (*domain.GuildSettings, error)
}

func (m *mockAppService) ManageableGuilds(ctx context.Context, accessToken string) []domain.Guild {
	if m.manageableGuildsFn != nil {
		return m.manageableGuildsFn(ctx, accessToken)
	}
	return []domain.Guild{}
}

func (m *mockAppService) Settings(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	if m.settingsFn != nil {
		return m.settingsFn(ctx, guildID)
	}
	return domain.DefaultGuildSettings(), nil
}

func (m *mockAppService) UpdateProtection(ctx context.Context, guildID string, spamEnabled, joinRaidEnabled bool) (*domain.GuildSettings, error) {
	if m.updateProtectionFn != nil {
		return m.updateProtectionFn(ctx, guildID, spamEnabled, joinRaidEnabled)
	}
	return nil, errors.New("not implemented")
}

type mockOAuthClient struct {
	authURL string
	token   string
	err     error
	codes   []string
}

func (m *mockOAuthClient) AuthCodeURL() string {
	if m.authURL != "" {
		return m.authURL
	}
	return "https://discord.com/oauth2/authorize?client_id=test-client-id&response_type=code"
}

func (m *mockOAuthClient) ExchangeCode(_ context.Context, code string) (string, error) {
	m.codes = append(m.codes, code)
	return m.token, m.err
}

// --- Test helpers ---

const testSessionSecret = "test-secret-key-32-bytes-long!!!"

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		DiscordClientID:    "test-client-id",
		DiscordRedirectURI: "http://localhost/callback",
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	}
}

func newTestCodec(t *testing.T) *session.Codec {
	t.Helper()
	codec, err := session.NewCodec([]byte(testSessionSecret))
	require.NoError(t, err)
	return codec
}

func newTestServer(t *testing.T, app appService, opts ...Option) *Server {
	t.Helper()
	return newTestServerWithOAuth(t, app, &mockOAuthClient{}, opts...)
}

func newTestServerWithOAuth(t *testing.T, app appService, oauth oauthClient, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithClock(clockwork.NewFakeClock())}, opts...)
	srv, err := NewServer(testConfig(), app, oauth, newTestCodec(t), opts...)
	require.NoError(t, err)
	return srv
}

// callHandler wraps a handler with the error middleware, matching production behavior.
func callHandler(srv *Server, handler echo.HandlerFunc, c echo.Context) error {
	return srv.errorHandlingMiddleware()(handler)(c)
}

func sessionCookie(t *testing.T, token string) *http.Cookie {
	t.Helper()
	blob, err := newTestCodec(t).Encode(token)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: blob}
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func authedGet(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.AddCookie(sessionCookie(t, "user-token"))
	return serve(srv, req)
}

func authedPost(t *testing.T, srv *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(sessionCookie(t, "user-token"))
	return serve(srv, req)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
