package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scouting-oidc/scouting-oidc/internal/web/handler"
)

// Middleware only lets requests with a logged-in session through.
// Everyone else is redirected to the login page.
func Middleware(c *fiber.Ctx) error {
	data, ok := handler.CurrentSession(c)
	if !ok {
		return c.Redirect(handler.LoginPath)
	}

	// Add the current user to locals for template access
	c.Locals(handler.CurrentUserKey, data.User)

	return c.Next()
}

// Optional adds the current user to locals if the request has a logged-in session.
func Optional(c *fiber.Ctx) error {
	if data, ok := handler.CurrentSession(c); ok {
		c.Locals(handler.CurrentUserKey, data.User)
	}

	return c.Next()
}
