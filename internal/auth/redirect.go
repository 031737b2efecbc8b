package auth

import (
	"net/url"
	"strings"
)

// User facing hints. They are the message ids of the translation catalog.
const (
	HintUserDenied       = "The user denied the request"
	HintCreationDisabled = "Webmaster disabled creation of new accounts"
	HintInvalidAttempt   = "Invalid or expired login attempt, please try again"
	HintLoginFailed      = "Login failed, please try again"
)

// Stable message codes carried to the login page.
const (
	MessageDisabledAutoCreate = "disabled_auto_create"
	MessageStateMismatch      = string(ReasonStateMismatch)
)

// Flow is the situation a redirect is decided for.
type Flow int

const (
	// FlowLogin is the end of a callback.
	FlowLogin Flow = iota
	// FlowLogout is the end of a session.
	FlowLogout
	// FlowLoginFailed is the login page showing a failure carried in its query.
	FlowLoginFailed
)

// RedirectKind tells the caller what to do.
type RedirectKind int

const (
	// RedirectNone means no action, e.g. for a request that was no callback.
	RedirectNone RedirectKind = iota
	// RedirectTo means redirect to URL.
	RedirectTo
	// RedirectContinue means stay on the page the login was started from.
	RedirectContinue
	// InlineError means render Message on the current page.
	InlineError
)

// Redirect is the decision of the RedirectPolicy.
type Redirect struct {
	Kind    RedirectKind
	URL     string
	Message string
}

// Translator translates a user facing hint. Unknown hints are returned unchanged.
type Translator interface {
	Translate(msg string) string
}

// EndSessionURLer builds the provider logout URL.
type EndSessionURLer interface {
	LogoutURL(idTokenHint, postLogoutRedirectURI string) string
}

// RedirectPolicy decides where a user goes after login, failed login and logout.
// It has no side effects.
type RedirectPolicy struct {
	cfg        Config
	endSession EndSessionURLer
}

// NewRedirectPolicy returns a policy for cfg. endSession may be nil.
func NewRedirectPolicy(cfg Config, endSession EndSessionURLer) RedirectPolicy {
	return RedirectPolicy{cfg: cfg, endSession: endSession}
}

// Decide returns the redirect for outcome in flow. For FlowLogout the id token of a *Success
// outcome is used as id_token_hint. tr is only used for FlowLoginFailed and may be nil.
func (p RedirectPolicy) Decide(outcome Outcome, flow Flow, tr Translator) Redirect {
	switch flow {
	case FlowLogout:
		return p.logout(outcome)
	case FlowLoginFailed:
		return p.loginFailed(outcome, tr)
	default:
		return p.login(outcome)
	}
}

func (p RedirectPolicy) login(outcome Outcome) Redirect {
	switch o := outcome.(type) {
	case *Success:
		return p.successTarget()
	case *ProviderError:
		return p.toLogin(o)
	case *CreationDisabled:
		return p.toLogin(&ProviderError{
			Description: "error",
			Hint:        HintCreationDisabled,
			Message:     MessageDisabledAutoCreate,
		})
	case *Denied:
		hint := HintLoginFailed
		if o.Reason == ReasonStateMismatch {
			hint = HintInvalidAttempt
		}

		return p.toLogin(&ProviderError{
			Description: string(o.Reason),
			Hint:        hint,
			Message:     string(o.Reason),
		})
	default:
		return Redirect{Kind: RedirectNone}
	}
}

func (p RedirectPolicy) successTarget() Redirect {
	switch p.cfg.LoginRedirect {
	case LoginTargetDashboard:
		return Redirect{Kind: RedirectTo, URL: p.cfg.DashboardURL}
	case LoginTargetFrontpage:
		return Redirect{Kind: RedirectTo, URL: p.cfg.HomeURL}
	default:
		return Redirect{Kind: RedirectContinue}
	}
}

func (p RedirectPolicy) toLogin(perr *ProviderError) Redirect {
	return Redirect{Kind: RedirectTo, URL: withQuery(p.cfg.LoginURL, perr.query())}
}

func (p RedirectPolicy) loginFailed(outcome Outcome, tr Translator) Redirect {
	perr, ok := outcome.(*ProviderError)
	if !ok {
		return Redirect{Kind: RedirectNone}
	}

	msg := perr.Hint
	if msg == "" {
		msg = perr.Description
	}

	if tr != nil {
		msg = tr.Translate(msg)
	}

	return Redirect{Kind: InlineError, Message: msg}
}

func (p RedirectPolicy) logout(outcome Outcome) Redirect {
	var hint string
	if s, ok := outcome.(*Success); ok {
		hint = s.IDToken
	}

	if p.endSession != nil {
		if target := p.endSession.LogoutURL(hint, p.cfg.PostLogoutRedirectURL); target != "" {
			return Redirect{Kind: RedirectTo, URL: target}
		}
	}

	return Redirect{Kind: RedirectTo, URL: p.cfg.LoginURL}
}

// withQuery appends q to base, which may already carry a query.
func withQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}

	return base + sep + q.Encode()
}
