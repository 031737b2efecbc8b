package auth

import (
	"net/url"

	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
)

// DenyReason is the stable code of a failed login.
type DenyReason string

const (
	// ReasonStateMismatch means the callback did not belong to a pending attempt.
	ReasonStateMismatch DenyReason = "state_mismatch"
	// ReasonExchangeFailed means the token endpoint could not be used.
	ReasonExchangeFailed DenyReason = "exchange_failed"
	// ReasonInvalidToken means the id token failed validation.
	ReasonInvalidToken DenyReason = "invalid_token"
	// ReasonInternal means a local failure, e.g. the user store was unavailable.
	ReasonInternal DenyReason = "internal_error"
)

// Outcome is the result of a completed callback. It is one of
// *Success, *Denied, *ProviderError or *CreationDisabled.
type Outcome interface {
	// Name is a stable, low cardinality label.
	Name() string
}

// Success carries the logged-in user and the raw id token for a later logout.
type Success struct {
	User    *models.User
	IDToken string
}

// Denied is a protocol violation or exchange failure. It always fails closed.
type Denied struct {
	Reason DenyReason
}

// ProviderError is a failure reported by the identity provider, kept verbatim.
type ProviderError struct {
	Description string
	Hint        string
	Message     string
}

// CreationDisabled means the identity is valid but unknown and account creation is off.
type CreationDisabled struct{}

// Name implements Outcome.
func (*Success) Name() string { return "success" }

// Name implements Outcome.
func (d *Denied) Name() string { return string(d.Reason) }

// Name implements Outcome.
func (*ProviderError) Name() string { return "provider_error" }

// Name implements Outcome.
func (*CreationDisabled) Name() string { return "creation_disabled" }

// ProviderErrorFromQuery returns the failure parameters of a login page request.
// The bool is false if none of them is present.
func ProviderErrorFromQuery(query url.Values) (*ProviderError, bool) {
	if !query.Has(ParamErrorDescription) && !query.Has(ParamHint) && !query.Has(ParamMessage) {
		return nil, false
	}

	return &ProviderError{
		Description: query.Get(ParamErrorDescription),
		Hint:        query.Get(ParamHint),
		Message:     query.Get(ParamMessage),
	}, true
}

func (p *ProviderError) query() url.Values {
	return url.Values{
		ParamErrorDescription: {p.Description},
		ParamHint:             {p.Hint},
		ParamMessage:          {p.Message},
	}
}
