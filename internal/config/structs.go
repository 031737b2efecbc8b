package config

import (
	"time"

	"github.com/scouting-oidc/scouting-oidc/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Redis     Redis
	OIDC      OIDC
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver, used to build callback and redirect targets
	Session      Session // session settings
}

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string // mysql, postgres or sqlite
}

// Redis holds the optional redis settings. If enabled, pending login attempts are stored in redis.
type Redis struct {
	Enabled   bool
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// OIDC holds the deployment defaults of the identity provider settings.
// Values stored in the settings table take precedence.
type OIDC struct {
	Issuer          string
	ClientID        string
	ClientSecret    string
	Scopes          []string
	AutoCreateUsers bool
	LoginRedirect   string // dashboard, frontpage or none
	SyncScoutingID  bool
	SyncBirthdate   bool
	SyncGender      bool
	ExchangeTimeout time.Duration // timeout of the token endpoint call
	MaxTokenAge     time.Duration // oldest accepted id token issued-at
	AttemptTTL      time.Duration // lifetime of a pending login attempt
}
