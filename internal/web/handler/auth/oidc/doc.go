// Package oidc provides the handlers of the OpenID Connect login flow.
//
// The pending attempt of a browser is stored under the id kept in the oidc_flow cookie.
// The logged-in session is created only after the callback completed successfully.
//
// Routes:
//
//	GET /auth/oidc/login    - start a login, optional redirect_to=<local path>
//	GET /auth/oidc/url      - start a login and return the authorization URL as JSON
//	GET /auth/oidc/callback - authorization response of the provider
package oidc
