// internal/config/config.go
//
// Process configuration for the numguess server.
// Values come from the environment; a .env file in the working directory is
// loaded first in development (missing file is fine).

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the server process.
type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json | console
	Env       string `env:"APP_ENV" envDefault:"development"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/numguess.db"`
	GameStore    string `env:"GAME_STORE" envDefault:"sqlite"` // memory | sqlite

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"numguess_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	MaxGuesses     int           `env:"MAX_GUESSES" envDefault:"64"`
	MaxRange       int           `env:"MAX_RANGE" envDefault:"1000000000"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RateLimit      float64       `env:"RATE_LIMIT" envDefault:"20"` // requests per second, 0 = off
	RateBurst      int           `env:"RATE_BURST" envDefault:"40"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch c.GameStore {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("GAME_STORE must be memory or sqlite, got %q", c.GameStore)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.JWTExpiresDays <= 0 {
		return fmt.Errorf("JWT_EXPIRES_DAYS must be positive, got %d", c.JWTExpiresDays)
	}
	if c.MaxGuesses < 0 {
		return fmt.Errorf("MAX_GUESSES must not be negative, got %d", c.MaxGuesses)
	}
	if c.MaxRange < 0 {
		return fmt.Errorf("MAX_RANGE must not be negative, got %d", c.MaxRange)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative, got %g", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("RATE_BURST must be positive when RATE_LIMIT is set, got %d", c.RateBurst)
	}
	return nil
}

// Production reports whether cookies should be Secure/SameSite=None.
func (c Config) Production() bool { return c.Env == "production" }

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }
