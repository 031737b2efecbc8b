// Package dashboard shows the account of the logged-in user.
package dashboard

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scouting-oidc/scouting-oidc/internal/web/handler"
	authmiddleware "github.com/scouting-oidc/scouting-oidc/internal/web/middleware/auth"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.DashboardPath

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard"
)

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Config == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, authmiddleware.Middleware, s.Get)

	return nil
}

// Get renders the dashboard.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.Render(TemplateName, handler.ViewData(c, s.deps.Config, fiber.Map{
		"LogoutURL": handler.OIDCLogoutPath,
	}), handler.BaseLayout)
}
