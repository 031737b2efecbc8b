package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AuthCodeURLer builds the provider authorization endpoint URL.
type AuthCodeURLer interface {
	AuthCodeURL(state, nonce string) string
}

// RequestBuilder starts a new authorization-code round trip.
type RequestBuilder struct {
	provider AuthCodeURLer
	store    StateStore
	ttl      time.Duration
	now      func() time.Time
}

// NewRequestBuilder returns a builder persisting attempts in store for ttl.
func NewRequestBuilder(provider AuthCodeURLer, store StateStore, ttl time.Duration) *RequestBuilder {
	return &RequestBuilder{provider: provider, store: store, ttl: ttl, now: time.Now}
}

// BuildAuthorizationRequest generates a state/nonce pair, stores it for the session and returns
// the authorization URL. Any attempt pending for the same session is replaced.
func (b *RequestBuilder) BuildAuthorizationRequest(
	ctx context.Context,
	sessionID string,
) (string, *PendingAuthAttempt, error) {
	if sessionID == "" {
		return "", nil, errors.New("empty session id")
	}

	attempt, err := NewPendingAuthAttempt(b.now())
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate state and nonce: %w", err)
	}

	if err = b.store.Save(ctx, sessionID, attempt, b.ttl); err != nil {
		return "", nil, fmt.Errorf("failed to store pending attempt: %w", err)
	}

	return b.provider.AuthCodeURL(attempt.State, attempt.Nonce), attempt, nil
}
