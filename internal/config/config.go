package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Save backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	SaveBackend string        `env:"ADVENTURE_SAVE_BACKEND" envDefault:"file"`
	SavePath    string        `env:"ADVENTURE_SAVE_PATH" envDefault:"savegame.yaml"`
	DBPath      string        `env:"ADVENTURE_DB_PATH" envDefault:"savegame.db"`
	LogPath     string        `env:"ADVENTURE_LOG_PATH" envDefault:"game.log"`
	PrintDelay  time.Duration `env:"ADVENTURE_PRINT_DELAY" envDefault:"30ms"`

	// Only the simulator talks to Gemini.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// LoadConfig loads the configuration from a .env file, if there is one, and
// the environment. Variables already set in the environment win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env cannot check on its own.
func (c *Config) Validate() error {
	switch c.SaveBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("ADVENTURE_SAVE_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, c.SaveBackend)
	}
	if c.PrintDelay < 0 {
		return fmt.Errorf("ADVENTURE_PRINT_DELAY must not be negative, got %s", c.PrintDelay)
	}
	return nil
}
