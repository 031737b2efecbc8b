package auth

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/validator/v10"
)

// LoginTarget is the destination after a successful login.
type LoginTarget string

const (
	// LoginTargetDashboard redirects to the account dashboard.
	LoginTargetDashboard LoginTarget = "dashboard"
	// LoginTargetFrontpage redirects to the site home.
	LoginTargetFrontpage LoginTarget = "frontpage"
	// LoginTargetNone continues to the page the login was started from.
	LoginTargetNone LoginTarget = "none"
)

// Field is an optional profile attribute synchronized from the id token.
type Field string

const (
	// FieldScoutingID is the membership number.
	FieldScoutingID Field = "scouting_id"
	// FieldBirthdate is the date of birth.
	FieldBirthdate Field = "birthdate"
	// FieldGender is the gender.
	FieldGender Field = "gender"
)

// FieldSet is a set of optional profile fields.
type FieldSet map[Field]struct{}

// NewFieldSet returns a set holding the given fields.
func NewFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}

	return set
}

// Has reports whether f is part of the set.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// Config is the immutable identity provider configuration of one deployment.
type Config struct {
	ClientID     string   `validate:"required"`
	ClientSecret string   `validate:"required"`
	Issuer       string   `validate:"required,url"`
	RedirectURL  string   `validate:"required,url"` // the callback endpoint of this service
	Scopes       []string `validate:"min=1,dive,required"`

	AutoCreateUsers bool
	LoginRedirect   LoginTarget `validate:"oneof=dashboard frontpage none"`
	FieldsToSync    FieldSet

	DashboardURL          string `validate:"required"`
	HomeURL               string `validate:"required"`
	LoginURL              string `validate:"required"`
	PostLogoutRedirectURL string

	ExchangeTimeout time.Duration `validate:"gt=0"` // token endpoint call
	MaxTokenAge     time.Duration `validate:"gt=0"` // oldest accepted id token
	AttemptTTL      time.Duration `validate:"gt=0"` // lifetime of a pending attempt
}

var validate = validator.New()

// Validate checks that the configuration is complete. A failure is a ConfigurationError
// and must stop the service at startup.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fields []string

	if errs, ok := err.(validator.ValidationErrors); ok { //nolint:errorlint // validator returns the slice type directly
		for _, fe := range errs {
			fields = append(fields, fe.Field()+"("+fe.Tag()+")")
		}
	}

	if len(fields) == 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return fmt.Errorf("%w: invalid %s", ErrConfiguration, strings.Join(fields, ", "))
}

// NormalizeScopes splits space separated entries, removes duplicates and makes sure
// the openid scope is requested first.
func NormalizeScopes(scopes []string) []string {
	out := []string{oidc.ScopeOpenID}

	for _, entry := range scopes {
		for _, scope := range strings.Fields(entry) {
			if !slices.Contains(out, scope) {
				out = append(out, scope)
			}
		}
	}

	return out
}
