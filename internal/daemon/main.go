// Package daemon wires storage, identity provider and web service together.
package daemon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/config"
	"github.com/scouting-oidc/scouting-oidc/internal/db/dsn"
	"github.com/scouting-oidc/scouting-oidc/internal/db/models"
	"github.com/scouting-oidc/scouting-oidc/internal/settings"
	"github.com/scouting-oidc/scouting-oidc/internal/web"
	"github.com/scouting-oidc/scouting-oidc/internal/web/session"
)

const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until it is shut down.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(":" + strconv.Itoa(d.cfg.Webserver.Port))
}

// App returns the fiber app of the web service.
func (d *Daemon) App() *fiber.App {
	return d.webService.App
}

// OpenDB connects to the configured database and migrates the schema.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// New creates a new Daemon instance with the provided configuration.
// Any error is a configuration or connection error and must stop the process.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	sessionStorage, err := newSessionStorage(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize fiber session store
	session.Init(sessionStorage)

	store, err := newStateStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	authCfg, err := settings.Load(db, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := auth.NewOIDCProvider(ctx, authCfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("issuer", authCfg.Issuer).
		Str("login_redirect", string(authCfg.LoginRedirect)).
		Bool("auto_create_users", authCfg.AutoCreateUsers).
		Msg("oidc provider initialized")

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, auth.NewAuthenticator(authCfg, provider, store, db)),
	}, nil
}

// newSessionStorage keeps sessions in the application database. A nil storage selects
// the in-memory storage, used with sqlite.
func newSessionStorage(cfg *config.Config) (fiber.Storage, error) {
	uri, err := dsn.Create(cfg)
	if err != nil {
		return nil, err
	}

	switch dsn.Engine(cfg) {
	case dsn.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: uri,
			Table:         sessionTable,
		}), nil
	case dsn.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: uri,
			Table:         sessionTable,
		}), nil
	default:
		log.Warn().Msg("sessions are kept in memory and lost on restart")

		return nil, nil
	}
}

// newStateStore selects where pending login attempts live.
func newStateStore(ctx context.Context, cfg *config.Config) (auth.StateStore, error) {
	if !cfg.Redis.Enabled {
		return session.NewStorageStateStore(session.Store.Storage), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	return session.NewRedisStateStore(client, cfg.Redis.KeyPrefix), nil
}
