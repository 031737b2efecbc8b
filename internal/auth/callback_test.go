package auth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCallback(t *testing.T) {
	pending := &PendingAuthAttempt{State: "expected-state", Nonce: "expected-nonce", CreatedAt: time.Now()}

	tests := []struct {
		name          string
		query         string
		pending       *PendingAuthAttempt
		wantKind      DecisionKind
		wantCode      string
		wantCleared   bool
		wantProvError ProviderError
	}{
		{
			name:          "provider error precedes state check",
			query:         "error_description=access_denied&hint=The+user+denied+the+request&message=denied&state=forged",
			pending:       pending,
			wantKind:      ProviderErrorReported,
			wantCleared:   true,
			wantProvError: ProviderError{Description: "access_denied", Hint: HintUserDenied, Message: "denied"},
		},
		{
			name:     "partial provider error is not reported",
			query:    "error_description=access_denied&hint=nope",
			pending:  pending,
			wantKind: NotApplicable,
		},
		{
			name:     "no state is not applicable",
			query:    "code=abc",
			pending:  pending,
			wantKind: NotApplicable,
		},
		{
			name:     "state without pending attempt",
			query:    "state=abc&code=xyz",
			wantKind: StateMismatch,
		},
		{
			name:     "pending attempt with empty state",
			query:    "state=&code=xyz",
			pending:  &PendingAuthAttempt{Nonce: "n"},
			wantKind: StateMismatch,
		},
		{
			name:     "wrong state",
			query:    "state=other-state&code=xyz",
			pending:  pending,
			wantKind: StateMismatch,
		},
		{
			name:     "repeated state parameter",
			query:    "state=expected-state&state=expected-state&code=xyz",
			pending:  pending,
			wantKind: StateMismatch,
		},
		{
			name:     "state prefix",
			query:    "state=expected&code=xyz",
			pending:  pending,
			wantKind: StateMismatch,
		},
		{
			name:     "mismatch wins over missing code",
			query:    "state=other-state",
			pending:  pending,
			wantKind: StateMismatch,
		},
		{
			name:     "valid state without code",
			query:    "state=expected-state",
			pending:  pending,
			wantKind: NotApplicable,
		},
		{
			name:     "valid state with empty code",
			query:    "state=expected-state&code=",
			pending:  pending,
			wantKind: NotApplicable,
		},
		{
			name:     "proceed",
			query:    "state=expected-state&code=the-code",
			pending:  pending,
			wantKind: Proceed,
			wantCode: "the-code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			if tt.pending != nil {
				require.NoError(t, store.Save(context.Background(), testSession, tt.pending, time.Minute))
			}

			query, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			decision, err := NewCallbackValidator(store).ValidateCallback(context.Background(), query, testSession)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, decision.Kind, decision.Kind.String())
			assert.Equal(t, tt.wantCode, decision.Code)
			assert.Equal(t, tt.wantProvError, decision.ProviderError)

			if tt.wantCleared {
				assert.False(t, store.pending(testSession), "provider error must clear the pending attempt")
			} else if tt.pending != nil {
				assert.True(t, store.pending(testSession), "validation alone must not consume the attempt")
			}
		})
	}
}

func TestValidateCallbackWithoutSession(t *testing.T) {
	store := newMemStore()

	decision, err := NewCallbackValidator(store).ValidateCallback(context.Background(), url.Values{
		ParamState: {"abc"},
		ParamCode:  {"xyz"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, StateMismatch, decision.Kind)
}
