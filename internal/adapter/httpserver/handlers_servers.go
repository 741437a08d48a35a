package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/KJ87SAT/Fortify-DashBoard/internal/platform/errors"
)

type guildView struct {
	ID      string
	Name    string
	IconURL string
}

func (s *Server) registerServerRoutes() {
	s.echo.GET("/servers", s.handleServers, s.requireAuth)
}

func (s *Server) handleServers(c echo.Context) error {
	token, ok := c.Get(contextKeyAccessToken).(string)
	if !ok {
		return apperrors.InternalError("missing access token in context", nil)
	}

	guilds := s.app.ManageableGuilds(c.Request().Context(), token)

	views := make([]guildView, 0, len(guilds))
	for _, g := range guilds {
		views = append(views, guildView{ID: g.ID, Name: g.Name, IconURL: g.IconURL()})
	}

	return s.renderTemplate(c, http.StatusOK, "servers.html", map[string]any{
		"Guilds": views,
	})
}
