// Package oidctest provides an in-process OpenID Connect provider for tests.
// It serves discovery, keys and a token endpoint and signs id tokens with RS256.
package oidctest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"

	"github.com/scouting-oidc/scouting-oidc/internal/uniuri"
)

const keyID = "oidctest"

// Grant describes the id token returned for one authorization code.
type Grant struct {
	Subject  string
	Nonce    string
	Audience []string       // defaults to the client id
	Issuer   string         // defaults to the provider issuer
	IssuedAt time.Time      // defaults to now
	Expiry   time.Time      // defaults to IssuedAt + 1h
	Claims   map[string]any // additional claims, e.g. email or infix

	// SigningKey signs the token instead of the published key.
	SigningKey *rsa.PrivateKey
	// OmitIDToken leaves the id_token out of the token response.
	OmitIDToken bool
	// Status makes the token endpoint answer with this status code.
	Status int
	// Delay holds the token response back.
	Delay time.Duration
}

// Provider is a running test identity provider.
type Provider struct {
	Server       *httptest.Server
	ClientID     string
	ClientSecret string

	key        *rsa.PrivateKey
	endSession bool

	mu     sync.Mutex
	grants map[string]Grant

	tokenCalls atomic.Int32
}

// Option configures a Provider.
type Option func(*Provider)

// WithoutEndSession hides the end_session_endpoint from the discovery document.
func WithoutEndSession() Option {
	return func(p *Provider) {
		p.endSession = false
	}
}

// New starts a provider. It is stopped by t.Cleanup.
func New(t testing.TB, opts ...Option) *Provider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &Provider{
		ClientID:     "scouting-client",
		ClientSecret: "scouting-secret",
		key:          key,
		endSession:   true,
		grants:       make(map[string]Grant),
	}

	for _, opt := range opts {
		opt(p)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("/jwks", p.jwks)
	mux.HandleFunc("/token", p.token)

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)

	return p
}

// Issuer returns the issuer URL.
func (p *Provider) Issuer() string {
	return p.Server.URL
}

// AuthorizationEndpoint returns the advertised authorization endpoint.
func (p *Provider) AuthorizationEndpoint() string {
	return p.Issuer() + "/authorize"
}

// EndSessionEndpoint returns the advertised end-session endpoint.
func (p *Provider) EndSessionEndpoint() string {
	return p.Issuer() + "/logout"
}

// TokenCalls returns how often the token endpoint was called.
func (p *Provider) TokenCalls() int {
	return int(p.tokenCalls.Load())
}

// IssueCode registers g and returns a fresh single-use authorization code for it.
func (p *Provider) IssueCode(t testing.TB, g Grant) string {
	t.Helper()

	code, err := uniuri.NewToken()
	require.NoError(t, err)

	p.mu.Lock()
	p.grants[code] = g
	p.mu.Unlock()

	return code
}

// SignIDToken signs an id token for g, applying the same defaults as the token endpoint.
func (p *Provider) SignIDToken(t testing.TB, g Grant) string {
	t.Helper()

	raw, err := p.sign(g)
	require.NoError(t, err)

	return raw
}

func (p *Provider) discovery(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]any{
		"issuer":                                p.Issuer(),
		"authorization_endpoint":                p.AuthorizationEndpoint(),
		"token_endpoint":                        p.Issuer() + "/token",
		"jwks_uri":                              p.Issuer() + "/jwks",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	}

	if p.endSession {
		doc["end_session_endpoint"] = p.EndSessionEndpoint()
	}

	writeJSON(w, http.StatusOK, doc)
}

func (p *Provider) jwks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &p.key.PublicKey,
		KeyID:     keyID,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}})
}

func (p *Provider) token(w http.ResponseWriter, r *http.Request) {
	p.tokenCalls.Add(1)

	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "authorization_code" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	if !p.clientAuthenticated(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	code := r.PostForm.Get("code")

	p.mu.Lock()
	g, ok := p.grants[code]
	delete(p.grants, code) // codes are single use
	p.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if g.Status != 0 && g.Status != http.StatusOK {
		writeJSON(w, g.Status, map[string]string{"error": "server_error"})
		return
	}

	resp := map[string]any{
		"access_token": "access-" + code,
		"token_type":   "Bearer",
		"expires_in":   3600,
	}

	if !g.OmitIDToken {
		raw, err := p.sign(g)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
			return
		}

		resp["id_token"] = raw
	}

	writeJSON(w, http.StatusOK, resp)
}

func (p *Provider) clientAuthenticated(r *http.Request) bool {
	if id, secret, ok := r.BasicAuth(); ok {
		return id == p.ClientID && secret == p.ClientSecret
	}

	return r.PostForm.Get("client_id") == p.ClientID && r.PostForm.Get("client_secret") == p.ClientSecret
}

func (p *Provider) sign(g Grant) (string, error) {
	key := p.key
	if g.SigningKey != nil {
		key = g.SigningKey
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: key, KeyID: keyID}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", err
	}

	issuedAt := g.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	expiry := g.Expiry
	if expiry.IsZero() {
		expiry = issuedAt.Add(time.Hour)
	}

	issuer := g.Issuer
	if issuer == "" {
		issuer = p.Issuer()
	}

	audience := g.Audience
	if audience == nil {
		audience = []string{p.ClientID}
	}

	registered := jwt.Claims{
		Issuer:   issuer,
		Subject:  g.Subject,
		Audience: jwt.Audience(audience),
		IssuedAt: jwt.NewNumericDate(issuedAt),
		Expiry:   jwt.NewNumericDate(expiry),
	}

	custom := map[string]any{}
	for k, v := range g.Claims {
		custom[k] = v
	}

	if g.Nonce != "" {
		custom["nonce"] = g.Nonce
	}

	return jwt.Signed(signer).Claims(registered).Claims(custom).Serialize()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
