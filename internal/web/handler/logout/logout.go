// Package logout ends logged-in sessions.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/web/handler"
	"github.com/scouting-oidc/scouting-oidc/internal/web/session"
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Config == nil || deps.Auth == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	// logout routes (outside auth middleware protection)
	app.Get(handler.LogoutPath, s.Logout)
	app.Post(handler.LogoutPath, s.Logout)
	app.Get(handler.OIDCLogoutPath, s.Logout)

	return nil
}

// Logout deletes the session and any pending login attempt. The browser continues
// to the provider logout, if the provider offers one, or to the login page.
func (s *Service) Logout(c *fiber.Ctx) error {
	var outcome auth.Outcome

	if data, ok := handler.CurrentSession(c); ok {
		outcome = &auth.Success{User: &data.User, IDToken: data.IDToken}
	}

	if err := session.Delete(c.Cookies(session.CookieName)); err != nil {
		log.Error().Err(err).Msg("failed to delete session")
	}

	handler.ClearCookie(c, s.deps.Config, session.CookieName)

	if err := s.deps.Auth.Abandon(c.UserContext(), c.Cookies(session.FlowCookieName)); err != nil {
		log.Error().Err(err).Msg("failed to delete pending login attempt")
	}

	handler.ClearCookie(c, s.deps.Config, session.FlowCookieName)
	handler.ClearCookie(c, s.deps.Config, session.ReturnCookieName)

	return handler.Follow(c, s.deps.Config, s.deps.Auth.Redirect(outcome, auth.FlowLogout, nil))
}
