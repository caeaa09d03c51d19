// Package config reads process settings from the environment, after loading
// a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"RRT_ADDR" envDefault:":8080"`
	// DatabaseURL is a Postgres DSN. Empty keeps save games in memory.
	DatabaseURL string `env:"RRT_DATABASE_URL"`
	// Dev switches to the console logger.
	Dev bool `env:"RRT_DEV" envDefault:"false"`
	// SaveTimeout bounds each save after a settled choice.
	SaveTimeout time.Duration `env:"RRT_SAVE_TIMEOUT" envDefault:"3s"`
	// AllowClientSeed lets POST /sessions pick the shuffle seed, for replays.
	AllowClientSeed bool `env:"RRT_ALLOW_CLIENT_SEED" envDefault:"true"`
}

// Load reads the given .env files (default ".env") if they exist, then parses
// the environment. Variables already set win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	return ParseEnv()
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
