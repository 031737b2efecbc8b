package auth

import (
	"context"
	"time"

	"github.com/scouting-oidc/scouting-oidc/internal/uniuri"
)

// PendingAuthAttempt ties an authorization request to the session that started it.
// It is single use: the first callback that presents its state consumes it.
type PendingAuthAttempt struct {
	State     string    `json:"state"`
	Nonce     string    `json:"nonce"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPendingAuthAttempt generates a fresh state and nonce.
// An error means the entropy source failed; callers must not retry silently.
func NewPendingAuthAttempt(now time.Time) (*PendingAuthAttempt, error) {
	state, err := uniuri.NewToken()
	if err != nil {
		return nil, err
	}

	nonce, err := uniuri.NewToken()
	if err != nil {
		return nil, err
	}

	return &PendingAuthAttempt{State: state, Nonce: nonce, CreatedAt: now}, nil
}

// StateStore keeps at most one pending attempt per session.
//
// Load and Consume return nil without error when nothing is pending.
// Consume must read and remove the attempt atomically, so that of two concurrent
// callbacks only one receives it.
type StateStore interface {
	Save(ctx context.Context, sessionID string, attempt *PendingAuthAttempt, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (*PendingAuthAttempt, error)
	Consume(ctx context.Context, sessionID string) (*PendingAuthAttempt, error)
	Delete(ctx context.Context, sessionID string) error
}
