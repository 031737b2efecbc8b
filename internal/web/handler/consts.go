package handler

import "errors"

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// LoginPath is the path to the login page.
	LoginPath = RootPath + "login"

	// DashboardPath is the path to the dashboard page.
	DashboardPath = RootPath + "dashboard"

	// OIDCLoginPath starts a login at the identity provider.
	OIDCLoginPath = RootPath + "auth/oidc/login"

	// OIDCURLPath returns the authorization URL as JSON.
	OIDCURLPath = RootPath + "auth/oidc/url"

	// OIDCCallbackPath receives the authorization response.
	OIDCCallbackPath = RootPath + "auth/oidc/callback"

	// OIDCLogoutPath ends the local session and the provider session.
	OIDCLogoutPath = RootPath + "auth/oidc/logout"

	// LogoutPath ends the local session.
	LogoutPath = RootPath + "logout"

	// CurrentUserKey is the fiber.Locals key of the logged-in user.
	CurrentUserKey = "CurrentUser"

	// ErrNilDepsFatalLogMsg is used if app or one of the dependencies is nil.
	ErrNilDepsFatalLogMsg = "app, cfg, db or authenticator is nil"
)

// ErrNilDeps is returned by Init if app or one of the dependencies is nil.
var ErrNilDeps = errors.New(ErrNilDepsFatalLogMsg)
