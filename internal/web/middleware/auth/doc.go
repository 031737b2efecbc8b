// Package auth provides the session guard for the web application.
//
// Middleware protects the account pages: without a valid session cookie the request is
// redirected to the login page, otherwise the user is stored in fiber.Locals under
// handler.CurrentUserKey for handlers and templates. Optional does the same without
// redirecting and is used on public pages.
//
// Usage:
//
//	app.Get(handler.DashboardPath, authmiddleware.Middleware, dashboard.Get)
package auth
