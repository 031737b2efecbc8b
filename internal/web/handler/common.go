package handler

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/config"
	"github.com/scouting-oidc/scouting-oidc/internal/i18n"
	"github.com/scouting-oidc/scouting-oidc/internal/web/session"
)

// SetCookie sets an http only cookie. It is Secure unless dev mode is enabled.
func SetCookie(c *fiber.Ctx, cfg *config.Config, name, value string, maxAge time.Duration) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     RootPath,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	c.Cookie(cookie)
}

// ClearCookie expires the cookie name.
func ClearCookie(c *fiber.Ctx, cfg *config.Config, name string) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     RootPath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	c.Cookie(cookie)
}

// CurrentSession returns the logged-in session of the request, if any.
func CurrentSession(c *fiber.Ctx) (*session.Data, bool) {
	data := new(session.Data)
	if err := data.Read(c.Cookies(session.CookieName)); err != nil {
		return nil, false
	}

	if data.User.ID == 0 {
		return nil, false
	}

	return data, true
}

// Printer returns the translator for the request language.
func Printer(c *fiber.Ctx) *i18n.Printer {
	return i18n.FromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
}

// ViewData returns the values every template gets.
func ViewData(c *fiber.Ctx, cfg *config.Config, values fiber.Map) fiber.Map {
	p := Printer(c)

	data := fiber.Map{
		"Title": cfg.Title,
		"Lang":  p.Lang(),
		"T":     p.Translate,
	}

	if user := c.Locals(CurrentUserKey); user != nil {
		data[CurrentUserKey] = user
	}

	for k, v := range values {
		data[k] = v
	}

	return data
}

// Query returns the parsed query string. Repeated parameters are kept.
func Query(c *fiber.Ctx) url.Values {
	// a malformed pair is dropped, the rest is kept
	q, _ := url.ParseQuery(string(c.Request().URI().QueryString())) //nolint:errcheck // partial result wanted

	return q
}

// Follow executes a redirect decision. RedirectContinue goes back to the page the login
// was started from, or home if there is none.
func Follow(c *fiber.Ctx, cfg *config.Config, d auth.Redirect) error {
	switch d.Kind {
	case auth.RedirectTo:
		return c.Redirect(d.URL)
	case auth.RedirectContinue:
		target := ReturnPath(c.Cookies(session.ReturnCookieName))
		ClearCookie(c, cfg, session.ReturnCookieName)

		return c.Redirect(target)
	case auth.RedirectNone, auth.InlineError:
	}

	return c.Redirect(LoginPath)
}

// ReturnPath returns p if it is a local absolute path, RootPath otherwise.
func ReturnPath(p string) string {
	if !IsLocalPath(p) {
		return RootPath
	}

	return p
}

// IsLocalPath reports whether p points into this site. Scheme relative and
// backslash paths are rejected as browsers treat them as external.
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.ContainsAny(p, "\\\r\n") {
		return false
	}

	u, err := url.Parse(p)

	return err == nil && u.Scheme == "" && u.Host == ""
}
