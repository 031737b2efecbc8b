package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TokenExchanger exchanges a code and validates the returned id token.
type TokenExchanger interface {
	ExchangeAndValidate(ctx context.Context, code string, attempt *PendingAuthAttempt) (*IdentityClaims, error)
}

// Provider is everything the login flow needs from the identity provider.
// *OIDCProvider implements it.
type Provider interface {
	AuthCodeURLer
	TokenExchanger
	EndSessionURLer
}

// Authenticator runs the login pipeline: callback validation, code exchange, user resolution.
// Each stage either hands a value to the next or ends the pipeline with an Outcome.
type Authenticator struct {
	cfg       Config
	store     StateStore
	builder   *RequestBuilder
	validator *CallbackValidator
	exchanger TokenExchanger
	resolver  *UserResolver
	policy    RedirectPolicy
}

// NewAuthenticator wires the pipeline.
func NewAuthenticator(cfg Config, provider Provider, store StateStore, db *gorm.DB) *Authenticator {
	return &Authenticator{
		cfg:       cfg,
		store:     store,
		builder:   NewRequestBuilder(provider, store, cfg.AttemptTTL),
		validator: NewCallbackValidator(store),
		exchanger: provider,
		resolver:  NewUserResolver(db),
		policy:    NewRedirectPolicy(cfg, provider),
	}
}

// Config returns the configuration the pipeline runs with.
func (a *Authenticator) Config() Config {
	return a.cfg
}

// Begin starts a new attempt for sessionID and returns the authorization URL.
func (a *Authenticator) Begin(ctx context.Context, sessionID string) (string, error) {
	authURL, _, err := a.builder.BuildAuthorizationRequest(ctx, sessionID)
	if err != nil {
		return "", err
	}

	log.Debug().Str("session", fingerprint(sessionID)).Msg("oidc login attempt started")

	return authURL, nil
}

// Abandon drops the pending attempt of sessionID, if there is one.
func (a *Authenticator) Abandon(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	return a.store.Delete(ctx, sessionID)
}

// Complete processes a callback. It returns nil if the request was no completed round trip.
func (a *Authenticator) Complete(ctx context.Context, sessionID string, query url.Values) Outcome {
	decision, err := a.validator.ValidateCallback(ctx, query, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session", fingerprint(sessionID)).Msg("oidc callback validation failed")
		return a.finish(sessionID, "", &Denied{Reason: ReasonInternal})
	}

	switch decision.Kind {
	case NotApplicable:
		return nil
	case ProviderErrorReported:
		perr := decision.ProviderError
		return a.finish(sessionID, "", &perr)
	case StateMismatch:
		return a.finish(sessionID, "", &Denied{Reason: ReasonStateMismatch})
	case Proceed:
	}

	// Take the attempt out of the store before any network call. Of two concurrent callbacks
	// only one gets it; the other one is a replay.
	attempt, err := a.store.Consume(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session", fingerprint(sessionID)).Msg("failed to consume pending attempt")
		return a.finish(sessionID, "", &Denied{Reason: ReasonInternal})
	}

	if attempt == nil || !tokenEqual(attempt.State, decision.State) {
		return a.finish(sessionID, "", &Denied{Reason: ReasonStateMismatch})
	}

	start := time.Now()
	claims, err := a.exchanger.ExchangeAndValidate(ctx, decision.Code, attempt)
	exchangeSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := ReasonInvalidToken
		if errors.Is(err, ErrExchangeFailed) {
			reason = ReasonExchangeFailed
		}

		log.Warn().Err(err).Str("session", fingerprint(sessionID)).Msg("oidc token exchange rejected")

		return a.finish(sessionID, "", &Denied{Reason: reason})
	}

	outcome, err := a.resolver.Resolve(ctx, claims, a.cfg)
	if err != nil {
		log.Error().Err(err).Str("subject_hash", fingerprint(claims.Subject)).Msg("failed to resolve local user")
		return a.finish(sessionID, claims.Subject, &Denied{Reason: ReasonInternal})
	}

	return a.finish(sessionID, claims.Subject, outcome)
}

// Redirect applies the redirect policy.
func (a *Authenticator) Redirect(outcome Outcome, flow Flow, tr Translator) Redirect {
	return a.policy.Decide(outcome, flow, tr)
}

func (a *Authenticator) finish(sessionID, subject string, outcome Outcome) Outcome {
	outcomesTotal.WithLabelValues(outcome.Name()).Inc()

	event := log.Info()
	if _, ok := outcome.(*Success); !ok {
		event = log.Warn()
	}

	event = event.Str("session", fingerprint(sessionID)).Str("outcome", outcome.Name())
	if subject != "" {
		event = event.Str("subject_hash", fingerprint(subject))
	}

	event.Msg("oidc callback completed")

	return outcome
}

// fingerprint returns a short, non reversible identifier for log correlation.
func fingerprint(s string) string {
	if s == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(s))

	return hex.EncodeToString(sum[:6])
}
