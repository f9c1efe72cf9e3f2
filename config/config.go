// Package config loads the process configuration from the environment.
package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Logger    Logger    `envPrefix:"LOGGER_"`
	HTTP      HTTP      `envPrefix:"HTTP_"`
	Mongo     Mongo     `envPrefix:"MONGO_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	RateLimit RateLimit `envPrefix:"RATELIMIT_"`
	Reconcile Reconcile `envPrefix:"RECONCILE_"`
}

type Logger struct {
	Level slog.Level `env:"LEVEL" envDefault:"info"`
}

type HTTP struct {
	Address           string        `env:"ADDRESS" envDefault:":8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"7s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"2s"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" envDefault:"*"`
}

type Mongo struct {
	URI      string        `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string        `env:"DATABASE" envDefault:"folio"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Redis is optional: an empty address disables event publishing.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Channel  string `env:"CHANNEL" envDefault:"folio-events"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"5"`
	Burst int     `env:"BURST" envDefault:"10"`
}

// Reconcile.Interval of zero disables the in-process reconciliation loop.
type Reconcile struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"0"`
}

// Parse loads an optional .env file then reads FOLIO_* variables.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment")
	}

	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: "FOLIO_",
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &conf, nil
}
