package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when the identity provider settings are incomplete or invalid.
	ErrConfiguration = errors.New("invalid oidc configuration")

	// ErrExchangeFailed is matched by every TokenError of kind ExchangeFailed.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrInvalidToken is matched by every TokenError of kind InvalidToken.
	ErrInvalidToken = errors.New("invalid id token")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrNonceMismatch is returned when the id token was not issued for the pending attempt.
	ErrNonceMismatch = errors.New("nonce mismatch")

	// ErrTokenTooOld is returned when the id token was issued longer ago than allowed.
	ErrTokenTooOld = errors.New("id token issued too long ago")

	// ErrTokenFromFuture is returned when the issued-at time lies in the future.
	ErrTokenFromFuture = errors.New("id token issued in the future")

	// ErrMissingSubject is returned when the id token carries no subject.
	ErrMissingSubject = errors.New("id token has no subject")

	// ErrNoPendingAttempt is returned when an exchange is started without a pending attempt.
	ErrNoPendingAttempt = errors.New("no pending authentication attempt")
)

// TokenErrorKind tells whether the token endpoint or the id token failed.
type TokenErrorKind int

const (
	// ExchangeFailed covers transport errors, timeouts and non-2xx token endpoint responses.
	ExchangeFailed TokenErrorKind = iota + 1
	// InvalidToken covers every id token validation failure.
	InvalidToken
)

func (k TokenErrorKind) String() string {
	switch k {
	case ExchangeFailed:
		return "exchange_failed"
	case InvalidToken:
		return "invalid_token"
	default:
		return "unknown"
	}
}

// TokenError is returned by the token exchanger.
type TokenError struct {
	Kind   TokenErrorKind
	Reason string
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}

	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Is matches ErrExchangeFailed and ErrInvalidToken by kind.
func (e *TokenError) Is(target error) bool {
	switch target { //nolint:errorlint // comparing sentinels
	case ErrExchangeFailed:
		return e.Kind == ExchangeFailed
	case ErrInvalidToken:
		return e.Kind == InvalidToken
	default:
		return false
	}
}

func exchangeFailed(reason string, err error) *TokenError {
	return &TokenError{Kind: ExchangeFailed, Reason: reason, Err: err}
}

func invalidToken(reason string, err error) *TokenError {
	return &TokenError{Kind: InvalidToken, Reason: reason, Err: err}
}
