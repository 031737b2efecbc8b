// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/scouting-oidc/scouting-oidc/internal/config"
)

// Supported gorm engines.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// ErrUnsupportedEngine is returned for an unknown gorm engine.
var ErrUnsupportedEngine = errors.New("unsupported gorm engine")

// Engine returns the normalized engine name, mysql if none is configured.
func Engine(cfg *config.Config) string {
	engine := strings.ToLower(strings.TrimSpace(cfg.DB.GormEngine))
	if engine == "" {
		return EngineMySQL
	}

	return engine
}

// Create builds the Data Source Name from the configuration.
func Create(cfg *config.Config) (string, error) {
	switch Engine(cfg) {
	case EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
			cfg.DB.User,
			cfg.DB.Password,
			net.JoinHostPort(cfg.DB.Host, strconv.Itoa(cfg.DB.Port)),
			cfg.DB.Name,
			cfg.DB.Extras,
		), nil
	case EnginePostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DB.User, cfg.DB.Password),
			Host:     net.JoinHostPort(cfg.DB.Host, strconv.Itoa(cfg.DB.Port)),
			Path:     "/" + cfg.DB.Name,
			RawQuery: cfg.DB.Extras,
		}

		return u.String(), nil
	case EngineSQLite:
		if cfg.DB.Name == "" {
			return "file::memory:?cache=shared", nil
		}

		return cfg.DB.Name, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedEngine, "engine %q", cfg.DB.GormEngine)
	}
}

// Dialector returns the gorm dialector matching the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	dsn, err := Create(cfg)
	if err != nil {
		return nil, err
	}

	switch Engine(cfg) {
	case EngineMySQL:
		return gormmysql.Open(dsn), nil
	case EnginePostgres:
		return gormpostgres.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}
