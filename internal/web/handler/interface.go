package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
	"github.com/scouting-oidc/scouting-oidc/internal/config"
)

// Deps are the shared dependencies of the web handlers.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Auth   *auth.Authenticator
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
