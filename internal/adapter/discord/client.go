// Package discord talks to the Discord REST API: the OAuth2 authorization-code
// flow, the logged-in user's guild list, and the bot's guild membership.
//
// Every call is a single round trip. Nothing is retried, including rate-limited
// responses, and no timeout is set beyond what the HTTP client carries.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
)

const (
	authorizeURL = "https://discord.com/oauth2/authorize"
	tokenURL     = "https://discord.com/api/oauth2/token"

	// Discord's maximum page size for GET /users/@me/guilds.
	userGuildsLimit = 200
)

// Scopes requested at login.
var Scopes = []string{"identify", "guilds"}

// ErrMissingAccessToken is returned when the token endpoint answers without an access token.
var ErrMissingAccessToken = errors.New("discord: token response lacks an access token")

// Call names used for metrics.
const (
	CallListUserGuilds = "list_user_guilds"
	CallIsBotMember    = "is_bot_member"
	CallExchangeCode   = "exchange_code"
)

// Call outcomes used for metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// CallObserver receives one observation per upstream call.
type CallObserver interface {
	ObserveDiscordCall(call, outcome string, duration time.Duration)
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BotToken     string
}

type Option func(*Client)

// WithHTTPClient routes every request, OAuth included, through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithObserver(o CallObserver) Option {
	return func(c *Client) { c.observer = o }
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// Client implements domain.DiscordGateway and the OAuth half of the login flow.
type Client struct {
	oauth      *oauth2.Config
	bot        *discordgo.Session
	httpClient *http.Client
	observer   CallObserver
	clock      clockwork.Clock
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}

	bot, err := c.newSession("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot session: %w", err)
	}
	c.bot = bot

	return c, nil
}

// newSession builds a REST-only session; the gateway websocket is never opened.
func (c *Client) newSession(authorization string) (*discordgo.Session, error) {
	s, err := discordgo.New(authorization)
	if err != nil {
		return nil, err
	}
	s.ShouldRetryOnRateLimit = false
	s.MaxRestRetries = 0
	s.StateEnabled = false
	if c.httpClient != nil {
		s.Client = c.httpClient
	}
	return s, nil
}

// AuthCodeURL returns Discord's authorize URL for this application.
// No state parameter is attached.
func (c *Client) AuthCodeURL() string {
	return c.oauth.AuthCodeURL("")
}

// ExchangeCode trades an authorization code for the user's access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	start := c.clock.Now()

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		outcome := OutcomeError
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			outcome = OutcomeRejected
		}
		c.observe(CallExchangeCode, outcome, start)
		return "", fmt.Errorf("%w: token exchange: %w", domain.ErrUpstream, err)
	}
	if token.AccessToken == "" {
		c.observe(CallExchangeCode, OutcomeRejected, start)
		return "", ErrMissingAccessToken
	}

	c.observe(CallExchangeCode, OutcomeSuccess, start)
	return token.AccessToken, nil
}

// ListUserGuilds returns the guilds of the user owning accessToken, with that
// user's permissions in each.
func (c *Client) ListUserGuilds(ctx context.Context, accessToken string) ([]domain.Guild, error) {
	start := c.clock.Now()

	s, err := c.newSession("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create user session: %w", err)
	}

	userGuilds, err := s.UserGuilds(userGuildsLimit, "", "", false, discordgo.WithContext(ctx))
	if err != nil {
		c.observe(CallListUserGuilds, classify(err), start)
		return nil, fmt.Errorf("%w: list user guilds: %w", domain.ErrUpstream, err)
	}
	c.observe(CallListUserGuilds, OutcomeSuccess, start)

	guilds := make([]domain.Guild, 0, len(userGuilds))
	for _, g := range userGuilds {
		guilds = append(guilds, domain.Guild{
			ID:          g.ID,
			Name:        g.Name,
			Icon:        g.Icon,
			Owner:       g.Owner,
			Permissions: g.Permissions,
		})
	}
	return guilds, nil
}

// IsBotMember reports whether the bot can fetch the guild. Any HTTP error status
// means false with a nil error; err is set only when no response was obtained.
func (c *Client) IsBotMember(ctx context.Context, guildID string) (bool, error) {
	start := c.clock.Now()

	_, err := c.bot.Guild(guildID, discordgo.WithContext(ctx))
	if err == nil {
		c.observe(CallIsBotMember, OutcomeSuccess, start)
		return true, nil
	}

	outcome := classify(err)
	c.observe(CallIsBotMember, outcome, start)
	if outcome == OutcomeRejected {
		return false, nil
	}
	return false, fmt.Errorf("%w: fetch guild %s: %w", domain.ErrUpstream, guildID, err)
}

func classify(err error) string {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return OutcomeRejected
	}
	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return OutcomeRejected
	}
	return OutcomeError
}

func (c *Client) observe(call, outcome string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveDiscordCall(call, outcome, c.clock.Since(start))
}
