package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnsupportedGormEngine error if config db.gormEngine is not one of mysql, postgres or sqlite.
	ErrUnsupportedGormEngine = errors.New("toml config db.gormEngine must be mysql, postgres or sqlite")

	// ErrEmptyRedisAddr error if redis is enabled without an address.
	ErrEmptyRedisAddr = errors.New("toml config redis.addr can not be empty if redis is enabled")
)

// ErrConfigNil is returned if no config was passed.
var ErrConfigNil = errors.New("config is nil")
