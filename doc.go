// Package main provides the entry point of scouting-oidc, a web service that signs
// members in through the Scouts Online OpenID Connect provider.
//
// The service runs the authorization code flow with state and nonce, validates the
// returned id token, links the subject to a local account (created on first login if
// enabled) and keeps a session for it. Deployment settings are read from etc/main.toml;
// the identity provider settings can be overridden in the database with the settings command.
package main
