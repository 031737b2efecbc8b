package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// allowedClockSkew is tolerated between the provider clock and ours for issued-at checks.
const allowedClockSkew = time.Minute

// IdentityClaims are the validated attributes of the authenticated user.
// They only exist after ExchangeAndValidate returned successfully.
type IdentityClaims struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	Infix      string
	Birthdate  string
	Gender     string
	IssuedAt   time.Time
	Audience   []string
	Issuer     string
	Nonce      string

	// RawIDToken is kept for the id_token_hint of a later logout.
	RawIDToken string
}

// profileClaims is the json payload of the id token.
type profileClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Infix      string `json:"infix"`
	Birthdate  string `json:"birthdate"`
	Gender     string `json:"gender"`
}

// Option configures an OIDCProvider.
type Option func(*OIDCProvider)

// WithHTTPClient sets the client used for discovery, key fetching and the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(p *OIDCProvider) {
		p.client = c
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *OIDCProvider) {
		p.now = now
	}
}

// OIDCProvider talks to the identity provider: it builds authorization URLs, exchanges codes,
// validates id tokens and builds end-session URLs.
type OIDCProvider struct {
	config     Config
	provider   *oidc.Provider
	verifier   *oidc.IDTokenVerifier
	oauth2     oauth2.Config
	client     *http.Client
	now        func() time.Time
	endSession string
}

// NewOIDCProvider runs the discovery against cfg.Issuer.
func NewOIDCProvider(ctx context.Context, cfg Config, opts ...Option) (*OIDCProvider, error) {
	p := &OIDCProvider{config: cfg, now: time.Now}

	for _, opt := range opts {
		opt(p)
	}

	provider, err := oidc.NewProvider(p.clientContext(ctx), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	p.provider = provider
	p.verifier = provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
		Now:      p.now,
	})

	p.oauth2 = oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       NormalizeScopes(cfg.Scopes),
	}

	// end_session_endpoint is optional
	var claims struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}

	if err = provider.Claims(&claims); err == nil {
		p.endSession = claims.EndSessionEndpoint
	}

	return p, nil
}

// AuthCodeURL returns the authorization endpoint URL for the code flow.
func (p *OIDCProvider) AuthCodeURL(state, nonce string) string {
	return p.oauth2.AuthCodeURL(state, oidc.Nonce(nonce))
}

// ExchangeAndValidate exchanges code at the token endpoint and validates the returned id token
// for attempt. Every failure is a *TokenError.
func (p *OIDCProvider) ExchangeAndValidate(
	ctx context.Context,
	code string,
	attempt *PendingAuthAttempt,
) (*IdentityClaims, error) {
	if attempt == nil || attempt.Nonce == "" {
		return nil, invalidToken("no pending attempt", ErrNoPendingAttempt)
	}

	ctx, cancel := context.WithTimeout(p.clientContext(ctx), p.config.ExchangeTimeout)
	defer cancel()

	token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeFailed("token endpoint", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, invalidToken("missing id token", ErrNoIDToken)
	}

	// signature, issuer, audience and expiry
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, invalidToken("verification failed", err)
	}

	if err = p.checkIssuedAt(idToken.IssuedAt); err != nil {
		return nil, invalidToken("issued at", err)
	}

	if idToken.Nonce == "" || !tokenEqual(idToken.Nonce, attempt.Nonce) {
		return nil, invalidToken("nonce", ErrNonceMismatch)
	}

	if idToken.Subject == "" {
		return nil, invalidToken("subject", ErrMissingSubject)
	}

	var profile profileClaims
	if err = idToken.Claims(&profile); err != nil {
		return nil, invalidToken("claims", err)
	}

	return &IdentityClaims{
		Subject:    idToken.Subject,
		Email:      profile.Email,
		GivenName:  profile.GivenName,
		FamilyName: profile.FamilyName,
		Infix:      profile.Infix,
		Birthdate:  profile.Birthdate,
		Gender:     profile.Gender,
		IssuedAt:   idToken.IssuedAt,
		Audience:   idToken.Audience,
		Issuer:     idToken.Issuer,
		Nonce:      idToken.Nonce,
		RawIDToken: rawIDToken,
	}, nil
}

// LogoutURL constructs the provider's end-session URL. It returns an empty string if the
// provider does not advertise an end_session_endpoint.
func (p *OIDCProvider) LogoutURL(idTokenHint, postLogoutRedirectURI string) string {
	if p.endSession == "" {
		return ""
	}

	u, err := url.Parse(p.endSession)
	if err != nil {
		return ""
	}

	q := u.Query()
	if idTokenHint != "" {
		q.Set("id_token_hint", idTokenHint)
	}

	if postLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}

	q.Set("client_id", p.config.ClientID)
	u.RawQuery = q.Encode()

	return u.String()
}

func (p *OIDCProvider) checkIssuedAt(iat time.Time) error {
	if iat.IsZero() {
		return errors.New("missing iat claim")
	}

	now := p.now()

	if iat.After(now.Add(allowedClockSkew)) {
		return ErrTokenFromFuture
	}

	if now.Sub(iat) > p.config.MaxTokenAge {
		return ErrTokenTooOld
	}

	return nil
}

func (p *OIDCProvider) clientContext(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}

	return oidc.ClientContext(ctx, p.client)
}
