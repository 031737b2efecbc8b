package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
)

// Callback query parameters.
const (
	ParamState            = "state"
	ParamCode             = "code"
	ParamErrorDescription = "error_description"
	ParamHint             = "hint"
	ParamMessage          = "message"
)

// DecisionKind classifies an incoming callback.
type DecisionKind int

const (
	// NotApplicable means the request is no completed round trip; the caller takes no action.
	NotApplicable DecisionKind = iota
	// ProviderErrorReported means the provider reported a failure.
	ProviderErrorReported
	// StateMismatch means the state is unknown, expired, already used or forged.
	StateMismatch
	// Proceed means the code may be exchanged.
	Proceed
)

func (k DecisionKind) String() string {
	switch k {
	case ProviderErrorReported:
		return "provider_error"
	case StateMismatch:
		return "state_mismatch"
	case Proceed:
		return "proceed"
	default:
		return "not_applicable"
	}
}

// CallbackDecision is the result of ValidateCallback.
type CallbackDecision struct {
	Kind          DecisionKind
	Code          string
	State         string
	ProviderError ProviderError
}

// CallbackValidator checks a callback against the pending attempt of the session.
type CallbackValidator struct {
	store StateStore
}

// NewCallbackValidator returns a validator reading attempts from store.
func NewCallbackValidator(store StateStore) *CallbackValidator {
	return &CallbackValidator{store: store}
}

// ValidateCallback decides what to do with the callback query. The checks run in a fixed order:
// provider errors first (they never carry a usable state), then state, then code.
// A provider error clears the pending attempt.
func (v *CallbackValidator) ValidateCallback(
	ctx context.Context,
	query url.Values,
	sessionID string,
) (CallbackDecision, error) {
	if query.Has(ParamErrorDescription) && query.Has(ParamHint) && query.Has(ParamMessage) {
		if sessionID != "" {
			if err := v.store.Delete(ctx, sessionID); err != nil {
				return CallbackDecision{}, fmt.Errorf("failed to clear pending attempt: %w", err)
			}
		}

		return CallbackDecision{
			Kind: ProviderErrorReported,
			ProviderError: ProviderError{
				Description: query.Get(ParamErrorDescription),
				Hint:        query.Get(ParamHint),
				Message:     query.Get(ParamMessage),
			},
		}, nil
	}

	if !query.Has(ParamState) {
		return CallbackDecision{Kind: NotApplicable}, nil
	}

	if sessionID == "" {
		return CallbackDecision{Kind: StateMismatch}, nil
	}

	attempt, err := v.store.Load(ctx, sessionID)
	if err != nil {
		return CallbackDecision{}, fmt.Errorf("failed to load pending attempt: %w", err)
	}

	states := query[ParamState]
	if attempt == nil || attempt.State == "" || len(states) != 1 || !tokenEqual(states[0], attempt.State) {
		return CallbackDecision{Kind: StateMismatch}, nil
	}

	codes := query[ParamCode]
	if len(codes) != 1 || codes[0] == "" {
		return CallbackDecision{Kind: NotApplicable}, nil
	}

	return CallbackDecision{Kind: Proceed, Code: codes[0], State: states[0]}, nil
}

// tokenEqual compares two protocol tokens in constant time.
func tokenEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
