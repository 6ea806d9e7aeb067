// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all server configuration, populated from environment
// variables (with a .env file loaded first if one exists).
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/codecache.db"`

	// JWTSecret signs session tokens. If unset, authentication is
	// disabled and only public routes work.
	JWTSecret string `env:"JWT_SECRET"`

	// BaseURL is the externally visible address, used to build the
	// links embedded in invitation emails.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	// SendGridAPIKey enables real invitation emails. If unset, the
	// mailer logs instead of sending.
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"noreply@codecache.dev"`

	// RunnerEnabled controls the Docker snippet runner. The server
	// starts without it; /api/snippets/{id}/run then returns 503.
	RunnerEnabled bool `env:"RUNNER_ENABLED" envDefault:"true"`
}

// Load reads a .env file if present, then parses the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("%s/auth/github/callback", cfg.BaseURL)
	}

	return &cfg, nil
}
