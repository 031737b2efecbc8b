// Package home renders the front page.
package home

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scouting-oidc/scouting-oidc/internal/web/handler"
	authmiddleware "github.com/scouting-oidc/scouting-oidc/internal/web/middleware/auth"
)

// TemplateName is the name of the front page template.
const TemplateName = "index"

// Service is the front page handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the front page handler.
var Handler = Service{}

// Init initializes the front page handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Config == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(handler.RootPath, authmiddleware.Optional, s.Get)

	return nil
}

// Get renders the front page.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, handler.ViewData(c, s.deps.Config, fiber.Map{
		"LoginURL":     handler.OIDCLoginPath,
		"LogoutURL":    handler.OIDCLogoutPath,
		"DashboardURL": handler.DashboardPath,
	}), handler.BaseLayout)
}
