package oidc

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/uniuri"
	"github.com/scouting-oidc/scouting-oidc/internal/web/handler"
	"github.com/scouting-oidc/scouting-oidc/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.OIDCLoginPath

	// URLPath is the path returning the authorization URL.
	URLPath = handler.OIDCURLPath

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.OIDCCallbackPath

	// ReturnParam names the local page to continue on after login.
	ReturnParam = "redirect_to"
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the OIDC handler.
var Handler = Service{}

// Init initializes the OIDC handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Config == nil || deps.Auth == nil {
		return handler.ErrNilDeps
	}

	s.deps = deps

	app.Get(LoginPath, s.Login)
	app.Get(URLPath, s.URL)
	app.Get(CallbackPath, s.Callback)

	return nil
}

// Login starts a login and redirects to the identity provider.
func (s *Service) Login(c *fiber.Ctx) error {
	if _, ok := handler.CurrentSession(c); ok {
		return s.loggedIn(c)
	}

	authURL, err := s.begin(c)
	if err != nil {
		return s.failed(c, err)
	}

	if p := c.Query(ReturnParam); handler.IsLocalPath(p) {
		handler.SetCookie(c, s.deps.Config, session.ReturnCookieName, p, s.deps.Auth.Config().AttemptTTL)
	} else {
		handler.ClearCookie(c, s.deps.Config, session.ReturnCookieName)
	}

	return c.Redirect(authURL)
}

// URL starts a login and returns the authorization URL. Like Login it replaces a
// pending attempt of the same browser.
func (s *Service) URL(c *fiber.Ctx) error {
	authURL, err := s.begin(c)
	if err != nil {
		log.Error().Err(err).Msg("failed to build authorization url")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": string(auth.ReasonInternal),
		})
	}

	return c.JSON(fiber.Map{"url": authURL})
}

// Callback completes a login.
func (s *Service) Callback(c *fiber.Ctx) error {
	if _, ok := handler.CurrentSession(c); ok {
		return s.loggedIn(c)
	}

	outcome := s.deps.Auth.Complete(c.UserContext(), c.Cookies(session.FlowCookieName), handler.Query(c))
	if outcome == nil {
		return c.Redirect(handler.LoginPath)
	}

	if success, ok := outcome.(*auth.Success); ok {
		if err := s.startSession(c, success); err != nil {
			log.Error().Err(err).Msg("failed to create session")

			outcome = &auth.Denied{Reason: auth.ReasonInternal}
		}
	}

	handler.ClearCookie(c, s.deps.Config, session.FlowCookieName)

	return handler.Follow(c, s.deps.Config, s.deps.Auth.Redirect(outcome, auth.FlowLogin, nil))
}

// begin stores a new attempt under the flow id of the browser and returns the authorization URL.
func (s *Service) begin(c *fiber.Ctx) (string, error) {
	flowID := c.Cookies(session.FlowCookieName)
	if len(flowID) != uniuri.SessionLen {
		var err error

		if flowID, err = session.GenerateSessionID(); err != nil {
			return "", err
		}
	}

	authURL, err := s.deps.Auth.Begin(c.UserContext(), flowID)
	if err != nil {
		return "", err
	}

	handler.SetCookie(c, s.deps.Config, session.FlowCookieName, flowID, s.deps.Auth.Config().AttemptTTL)

	return authURL, nil
}

func (s *Service) startSession(c *fiber.Ctx, success *auth.Success) error {
	sessionID, err := session.GenerateSessionID()
	if err != nil {
		return err
	}

	data := &session.Data{
		User:    *success.User,
		IDToken: success.IDToken,
	}

	expiry := s.deps.Config.Webserver.Session.ExpiryTime
	if err = data.Write(sessionID, expiry); err != nil {
		return err
	}

	handler.SetCookie(c, s.deps.Config, session.CookieName, sessionID, expiry)

	return nil
}

// loggedIn sends an authenticated user on as after a successful login.
func (s *Service) loggedIn(c *fiber.Ctx) error {
	return handler.Follow(c, s.deps.Config, s.deps.Auth.Redirect(&auth.Success{}, auth.FlowLogin, nil))
}

func (s *Service) failed(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Msg("failed to start oidc login")

	return handler.Follow(c, s.deps.Config,
		s.deps.Auth.Redirect(&auth.Denied{Reason: auth.ReasonInternal}, auth.FlowLogin, nil))
}
