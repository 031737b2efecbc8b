// Package login renders the login page.
package login

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/web/handler"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Config == nil || deps.Auth == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get renders the login button. A failure reported in the query is shown above it.
func (s *Service) Get(c *fiber.Ctx) error {
	if _, ok := handler.CurrentSession(c); ok {
		return c.Redirect(handler.DashboardPath)
	}

	data := fiber.Map{
		"LoginURL": handler.OIDCLoginPath,
	}

	if perr, ok := auth.ProviderErrorFromQuery(handler.Query(c)); ok {
		d := s.deps.Auth.Redirect(perr, auth.FlowLoginFailed, handler.Printer(c))
		if d.Kind == auth.InlineError {
			data["Error"] = d.Message
		}
	}

	return c.Render(TemplateName, handler.ViewData(c, s.deps.Config, data), handler.BaseLayout)
}
