package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration, loaded once at startup and
// passed into constructors.
type Config struct {
	ServerPort       int           `env:"PORT" envDefault:"8080"`
	AppEnv           string        `env:"APP_ENV" envDefault:"development"`
	DatabasePath     string        `env:"DATABASE_PATH" envDefault:"./authflow.db"`
	JWTSecret        string        `env:"JWT_SECRET_KEY"`
	JWTExpiry        time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	CookieExpireDays int           `env:"JWT_COOKIE_EXPIRES_IN" envDefault:"7"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	OTPSweepInterval time.Duration `env:"OTP_SWEEP_INTERVAL" envDefault:"10m"`

	SMTPHost  string `env:"EMAIL_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort  int    `env:"EMAIL_PORT" envDefault:"587"`
	SMTPUser  string `env:"EMAIL_USER"`
	SMTPPass  string `env:"EMAIL_PASS"`
	FromEmail string `env:"EMAIL_FROM"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY must be set")
	}
	return &cfg, nil
}

// IsProduction reports whether the app runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
