package settings

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/config"
	"github.com/scouting-oidc/scouting-oidc/internal/db/controller/setting"
	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Setting{}))

	return db
}

func baseConfig() *config.Config {
	return &config.Config{
		Webserver: config.Webserver{Port: 8080, URL: "https://leden.example.nl/"},
		OIDC: config.OIDC{
			Issuer:          config.DefaultIssuer,
			ClientID:        "file-client",
			ClientSecret:    "file-secret",
			Scopes:          []string{"profile", "email"},
			AutoCreateUsers: true,
			LoginRedirect:   "dashboard",
			SyncScoutingID:  true,
			ExchangeTimeout: 10 * time.Second,
			MaxTokenAge:     10 * time.Minute,
			AttemptTTL:      10 * time.Minute,
		},
	}
}

func TestLoadFileDefaults(t *testing.T) {
	db := setupTestDB(t)

	cfg, err := Load(db, baseConfig())
	require.NoError(t, err)

	assert.Equal(t, "file-client", cfg.ClientID)
	assert.Equal(t, "file-secret", cfg.ClientSecret)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.Scopes)
	assert.Equal(t, "https://leden.example.nl/auth/oidc/callback", cfg.RedirectURL)
	assert.Equal(t, "https://leden.example.nl/dashboard", cfg.DashboardURL)
	assert.Equal(t, "https://leden.example.nl/", cfg.HomeURL)
	assert.Equal(t, "https://leden.example.nl/login", cfg.LoginURL)
	assert.Equal(t, auth.LoginTargetDashboard, cfg.LoginRedirect)
	assert.True(t, cfg.AutoCreateUsers)
	assert.True(t, cfg.FieldsToSync.Has(auth.FieldScoutingID))
	assert.False(t, cfg.FieldsToSync.Has(auth.FieldBirthdate))
	assert.False(t, cfg.FieldsToSync.Has(auth.FieldGender))
}

func TestLoadOverlay(t *testing.T) {
	db := setupTestDB(t)

	for name, value := range map[string]string{
		ClientID:         "db-client",
		ClientSecret:     "db-secret",
		Scopes:           "openid membership",
		UserAutoCreate:   "0",
		LoginRedirect:    "Frontpage",
		UserScoutingID:   "off",
		UserBirthdate:    "yes",
		UserGender:       "1",
		"unrelated_name": "ignored",
	} {
		_, err := setting.Set(db, name, []byte(value))
		require.NoError(t, err)
	}

	cfg, err := Load(db, baseConfig())
	require.NoError(t, err)

	assert.Equal(t, "db-client", cfg.ClientID)
	assert.Equal(t, "db-secret", cfg.ClientSecret)
	assert.Equal(t, []string{"openid", "membership"}, cfg.Scopes)
	assert.False(t, cfg.AutoCreateUsers)
	assert.Equal(t, auth.LoginTargetFrontpage, cfg.LoginRedirect)
	assert.False(t, cfg.FieldsToSync.Has(auth.FieldScoutingID))
	assert.True(t, cfg.FieldsToSync.Has(auth.FieldBirthdate))
	assert.True(t, cfg.FieldsToSync.Has(auth.FieldGender))
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		value   string
		mutate  func(c *config.Config)
	}{
		{name: "missing client id", mutate: func(c *config.Config) { c.OIDC.ClientID = "" }},
		{name: "missing secret in table", setting: ClientSecret, value: ""},
		{name: "unknown login redirect", setting: LoginRedirect, value: "profile"},
		{name: "zero exchange timeout", mutate: func(c *config.Config) { c.OIDC.ExchangeTimeout = 0 }},
		{name: "issuer not an url", mutate: func(c *config.Config) { c.OIDC.Issuer = "scouting" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			cfg := baseConfig()

			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			if tt.setting != "" {
				_, err := setting.Set(db, tt.setting, []byte(tt.value))
				require.NoError(t, err)
			}

			_, err := Load(db, cfg)
			require.ErrorIs(t, err, auth.ErrConfiguration)
		})
	}
}

func TestLoadDBError(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.Setting{}))

	_, err := Load(db, baseConfig())
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrConfiguration)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "on"} {
		assert.True(t, ParseBool(v), v)
	}

	for _, v := range []string{"", "0", "false", "no", "off", "enabled"} {
		assert.False(t, ParseBool(v), v)
	}
}

func TestKnownAndDisplay(t *testing.T) {
	assert.True(t, Known(ClientSecret))
	assert.False(t, Known("scouting_oidc_unknown"))

	assert.Equal(t, "db-client", Display(ClientID, "db-client"))
	assert.Equal(t, "abcd****", Display(ClientSecret, "abcdefgh"))
	assert.Equal(t, "***", Display(ClientSecret, "abc"))
}
