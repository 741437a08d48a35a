package app

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
	"github.com/KJ87SAT/Fortify-DashBoard/internal/platform/correlation"
)

// Service is the application layer. It is the only component that references
// both the Discord gateway and the settings store.
type Service struct {
	discord         domain.DiscordGateway
	store           domain.SettingsStore
	membershipGroup singleflight.Group
}

func NewService(discord domain.DiscordGateway, store domain.SettingsStore) *Service {
	return &Service{discord: discord, store: store}
}

// ManageableGuilds returns the user's guilds in which the user holds the
// administrator bit and the bot is present, in the order Discord listed them.
// One membership call is made per administrator guild. Upstream failures
// degrade to fewer guilds rather than an error.
func (s *Service) ManageableGuilds(ctx context.Context, accessToken string) []domain.Guild {
	guilds, err := s.discord.ListUserGuilds(ctx, accessToken)
	if err != nil {
		slog.WarnContext(ctx, "Guild listing failed, showing no guilds", "error", err)
		return []domain.Guild{}
	}

	manageable := make([]domain.Guild, 0, len(guilds))
	for _, g := range guilds {
		if !g.IsAdministrator() {
			continue
		}
		if s.botPresent(correlation.WithGuild(ctx, g.ID), g.ID) {
			manageable = append(manageable, g)
		}
	}
	return manageable
}

// Settings returns the guild's settings, creating the default document on
// first access. The store is not touched unless the bot is in the guild.
func (s *Service) Settings(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return nil, err
	}
	ctx = correlation.WithGuild(ctx, guildID)

	if !s.botPresent(ctx, guildID) {
		return nil, domain.ErrBotNotInGuild
	}
	return s.store.Load(ctx, guildID)
}

// UpdateProtection sets the two protection toggles and rewrites the whole
// document. Every other field is carried over from the loaded document.
// Concurrent updates are last-write-wins.
func (s *Service) UpdateProtection(ctx context.Context, guildID string, spamEnabled, joinRaidEnabled bool) (*domain.GuildSettings, error) {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return nil, err
	}
	ctx = correlation.WithGuild(ctx, guildID)

	settings, err := s.store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}

	settings.SpamProtection.Enabled = spamEnabled
	settings.JoinRaid.Enabled = joinRaidEnabled

	if err := s.store.Save(ctx, guildID, settings); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Guild protection updated", "spam_enabled", spamEnabled, "join_raid_enabled", joinRaidEnabled)
	return settings, nil
}

// botPresent collapses concurrent membership checks for the same guild into
// one upstream call. The shared call ignores the first caller's cancellation;
// each caller still stops waiting when its own context ends. Errors count as
// absent.
func (s *Service) botPresent(ctx context.Context, guildID string) bool {
	flightCtx := context.WithoutCancel(ctx)
	ch := s.membershipGroup.DoChan(guildID, func() (any, error) {
		present, err := s.discord.IsBotMember(flightCtx, guildID)
		if err != nil {
			slog.WarnContext(flightCtx, "Bot membership check failed", "error", err)
			return false, nil
		}
		return present, nil
	})

	select {
	case res := <-ch:
		present, _ := res.Val.(bool)
		return present
	case <-ctx.Done():
		return false
	}
}
