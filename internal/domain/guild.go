package domain

import (
	"context"
	"fmt"
	"strings"
)

// PermissionAdministrator is Discord's ADMINISTRATOR permission bit.
const PermissionAdministrator int64 = 0x8

const cdnIconURL = "https://cdn.discordapp.com/icons/%s/%s.png"

// Guild is the subset of a Discord guild the dashboard needs, as seen by the
// logged-in user. Permissions is that user's permission bitmask in the guild.
type Guild struct {
	ID          string
	Name        string
	Icon        string
	Owner       bool
	Permissions int64
}

// IsAdministrator reports whether the user holds the administrator bit.
func (g Guild) IsAdministrator() bool {
	return g.Permissions&PermissionAdministrator == PermissionAdministrator
}

// IconURL returns the CDN URL of the guild icon, or "" when it has none.
func (g Guild) IconURL() string {
	if g.Icon == "" {
		return ""
	}
	return fmt.Sprintf(cdnIconURL, g.ID, g.Icon)
}

// ValidateGuildID checks that id looks like a Discord snowflake: 1 to 20 ASCII digits.
// Store keys are derived from it, so nothing else may pass through.
func ValidateGuildID(id string) error {
	if id == "" || len(id) > 20 {
		return fmt.Errorf("%w: %q", ErrInvalidGuildID, id)
	}
	if strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidGuildID, id)
	}
	return nil
}

// DiscordGateway is the upstream identity and membership provider.
//
// ListUserGuilds uses the user's OAuth bearer token. IsBotMember uses the bot's
// own credential and reports false for any non-success response; err is only
// set when the request could not be completed at all.
type DiscordGateway interface {
	ListUserGuilds(ctx context.Context, accessToken string) ([]Guild, error)
	IsBotMember(ctx context.Context, guildID string) (bool, error)
}
