package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
	apperrors "github.com/KJ87SAT/Fortify-DashBoard/internal/platform/errors"
)

const (
	fieldSpamEnabled = "spam_enabled"
	fieldJoinRaid    = "join_raid"
	// Older form name for the join-raid checkbox.
	fieldJoinEnabled = "join_enabled"

	checkboxOn = "on"
)

func (s *Server) registerDashboardRoutes() {
	s.echo.GET("/dashboard/:guildID", s.handleDashboard, s.requireAuth)
	s.echo.POST("/dashboard/:guildID", s.handleSaveSettings, s.requireAuth)
}

// handleDashboard renders a guild's settings. Only bot membership is checked;
// any logged-in user may open any guild the bot is in.
func (s *Server) handleDashboard(c echo.Context) error {
	guildID := c.Param("guildID")

	settings, err := s.app.Settings(c.Request().Context(), guildID)
	if err != nil {
		return settingsError(err, guildID)
	}

	return s.renderTemplate(c, http.StatusOK, "dashboard.html", map[string]any{
		"GuildID":  guildID,
		"Settings": settings,
	})
}

func (s *Server) handleSaveSettings(c echo.Context) error {
	guildID := c.Param("guildID")

	form, err := c.FormParams()
	if err != nil {
		return apperrors.ValidationError("invalid form body").WithField("guild_id", guildID)
	}
	spamEnabled, joinRaidEnabled := parseProtectionForm(form)

	if _, err := s.app.UpdateProtection(c.Request().Context(), guildID, spamEnabled, joinRaidEnabled); err != nil {
		return settingsError(err, guildID)
	}

	if err := c.Redirect(http.StatusSeeOther, "/dashboard/"+guildID); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

// parseProtectionForm reads the two checkboxes. A box is on only when its value
// is exactly "on". join_raid takes precedence over join_enabled when both are sent.
func parseProtectionForm(form map[string][]string) (spamEnabled, joinRaidEnabled bool) {
	spamEnabled = firstValue(form, fieldSpamEnabled) == checkboxOn

	if _, ok := form[fieldJoinRaid]; ok {
		joinRaidEnabled = firstValue(form, fieldJoinRaid) == checkboxOn
	} else {
		joinRaidEnabled = firstValue(form, fieldJoinEnabled) == checkboxOn
	}
	return spamEnabled, joinRaidEnabled
}

func firstValue(form map[string][]string, key string) string {
	if v := form[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func settingsError(err error, guildID string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidGuildID):
		return apperrors.ValidationError("Invalid server ID.").WithField("guild_id", guildID)
	case errors.Is(err, domain.ErrBotNotInGuild):
		return apperrors.ForbiddenError("Bot is not in this server.").WithField("guild_id", guildID)
	case errors.Is(err, domain.ErrStorage):
		return apperrors.InternalError("failed to access guild settings", err).WithField("guild_id", guildID)
	default:
		return apperrors.InternalError("failed to process guild settings", err).WithField("guild_id", guildID)
	}
}
