// Package settings builds the identity provider configuration from the deployment
// defaults and the settings table. A setting present in the table wins over the file.
package settings

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/config"
	"github.com/scouting-oidc/scouting-oidc/internal/db/controller/setting"
)

// Setting names, shared with the settings command.
const (
	Prefix = "scouting_oidc_"

	ClientID        = Prefix + "client_id"
	ClientSecret    = Prefix + "client_secret"
	Scopes          = Prefix + "scopes"
	UserAutoCreate  = Prefix + "user_auto_create"
	LoginRedirect   = Prefix + "login_redirect"
	UserScoutingID  = Prefix + "user_scouting_id"
	UserBirthdate   = Prefix + "user_birthdate"
	UserGender      = Prefix + "user_gender"
	maskedSecretLen = 4
)

// Paths of the web service the configuration points at.
const (
	CallbackPath  = "/auth/oidc/callback"
	DashboardPath = "/dashboard"
	HomePath      = "/"
	LoginPath     = "/login"
)

// Names lists every known setting in display order.
func Names() []string {
	return []string{
		ClientID, ClientSecret, Scopes, UserAutoCreate, LoginRedirect,
		UserScoutingID, UserBirthdate, UserGender,
	}
}

// Known reports whether name is a known setting.
func Known(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}

	return false
}

// Load returns the validated identity provider configuration. An error is a configuration
// error and must stop the service.
func Load(db *gorm.DB, cfg *config.Config) (auth.Config, error) {
	base := strings.TrimRight(cfg.Webserver.URL, "/")

	out := auth.Config{
		ClientID:              cfg.OIDC.ClientID,
		ClientSecret:          cfg.OIDC.ClientSecret,
		Issuer:                cfg.OIDC.Issuer,
		RedirectURL:           base + CallbackPath,
		Scopes:                cfg.OIDC.Scopes,
		AutoCreateUsers:       cfg.OIDC.AutoCreateUsers,
		LoginRedirect:         auth.LoginTarget(strings.ToLower(cfg.OIDC.LoginRedirect)),
		DashboardURL:          base + DashboardPath,
		HomeURL:               base + HomePath,
		LoginURL:              base + LoginPath,
		PostLogoutRedirectURL: base + LoginPath,
		ExchangeTimeout:       cfg.OIDC.ExchangeTimeout,
		MaxTokenAge:           cfg.OIDC.MaxTokenAge,
		AttemptTTL:            cfg.OIDC.AttemptTTL,
	}

	fields := map[auth.Field]bool{
		auth.FieldScoutingID: cfg.OIDC.SyncScoutingID,
		auth.FieldBirthdate:  cfg.OIDC.SyncBirthdate,
		auth.FieldGender:     cfg.OIDC.SyncGender,
	}

	overlay := []struct {
		name  string
		apply func(string)
	}{
		{ClientID, func(v string) { out.ClientID = v }},
		{ClientSecret, func(v string) { out.ClientSecret = v }},
		{Scopes, func(v string) { out.Scopes = strings.Fields(v) }},
		{UserAutoCreate, func(v string) { out.AutoCreateUsers = ParseBool(v) }},
		{LoginRedirect, func(v string) { out.LoginRedirect = auth.LoginTarget(strings.ToLower(strings.TrimSpace(v))) }},
		{UserScoutingID, func(v string) { fields[auth.FieldScoutingID] = ParseBool(v) }},
		{UserBirthdate, func(v string) { fields[auth.FieldBirthdate] = ParseBool(v) }},
		{UserGender, func(v string) { fields[auth.FieldGender] = ParseBool(v) }},
	}

	for _, o := range overlay {
		value, ok, err := setting.Lookup(db, o.name)
		if err != nil {
			return auth.Config{}, fmt.Errorf("failed to read setting %s: %w", o.name, err)
		}

		if ok {
			o.apply(value)
		}
	}

	out.FieldsToSync = auth.NewFieldSet()
	for f, enabled := range fields {
		if enabled {
			out.FieldsToSync[f] = struct{}{}
		}
	}

	out.Scopes = auth.NormalizeScopes(out.Scopes)

	if err := out.Validate(); err != nil {
		return auth.Config{}, err
	}

	return out, nil
}

// ParseBool accepts 1, true, yes and on, case insensitive. Everything else is false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Display returns value safe for printing: the client secret is masked.
func Display(name, value string) string {
	if name != ClientSecret {
		return value
	}

	if len(value) <= maskedSecretLen {
		return strings.Repeat("*", len(value))
	}

	return value[:maskedSecretLen] + strings.Repeat("*", len(value)-maskedSecretLen)
}
