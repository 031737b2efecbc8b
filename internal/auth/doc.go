// Package auth implements the OpenID Connect authorization-code login against one identity provider.
//
// A login runs through fixed stages, each of which either hands a typed value to the next
// stage or ends the login with an Outcome:
//
//   - RequestBuilder generates a single-use state and nonce, stores them as PendingAuthAttempt
//     for the browser session and returns the authorization URL.
//   - CallbackValidator inspects the callback query: provider errors first, then the state
//     (constant-time compare against the pending attempt), then the code.
//   - OIDCProvider exchanges the code and validates the id token: signature, issuer, audience,
//     expiry, issued-at and nonce. Only then are claims used.
//   - UserResolver creates or updates the local user keyed by subject, atomically.
//   - RedirectPolicy decides where the browser goes next, for login, failed login and logout.
//
// Authenticator ties the stages together:
//
//	a := auth.NewAuthenticator(cfg, provider, store, db)
//	authURL, err := a.Begin(ctx, sessionID)
//	...
//	outcome := a.Complete(ctx, sessionID, callbackQuery)
//	redirect := a.Redirect(outcome, auth.FlowLogin, nil)
//
// A pending attempt is consumed before the token endpoint is called, so a replayed callback
// always ends as a state mismatch.
package auth
