// Package config reads the companion's settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/roach88/retreat/internal/schedule"
)

// Config holds every setting. Command-line flags override these values.
type Config struct {
	// Storage
	DBPath  string `env:"RETREAT_DB" envDefault:"retreat.db"`
	DataDir string `env:"RETREAT_DATA_DIR" envDefault:"data"`

	// Schedule
	SchedulePath string `env:"RETREAT_SCHEDULE"` // optional CUE file; built-in calendar when empty
	Timezone     string `env:"RETREAT_TIMEZONE" envDefault:"Asia/Seoul"`
	DebugTime    string `env:"RETREAT_DEBUG_TIME"` // pins the clock, e.g. 2026-01-12T07:00

	// Runtime
	Tick     time.Duration `env:"RETREAT_TICK" envDefault:"60s"`
	LogLevel string        `env:"RETREAT_LOG_LEVEL" envDefault:"info"` // debug, info, warn, error
}

// Load reads the given .env files (".env" when none are named) and then
// parses the environment. Missing .env files are not an error; variables
// already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("no .env file, using environment variables", "file", f)
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that can be wrong independently of each other.
func (c Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Tick <= 0 {
		return fmt.Errorf("RETREAT_TICK must be positive, got %s", c.Tick)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, _, err := c.PinnedTime(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. Asia/Seoul falls back to a fixed +09:00 zone
// when the tz database is unavailable.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Asia/Seoul" {
		return schedule.Seoul, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("RETREAT_TIMEZONE: %w", err)
	}
	return loc, nil
}

// PinnedTime parses DebugTime in the configured zone. ok is false when no
// debug time is set.
func (c Config) PinnedTime() (t time.Time, ok bool, err error) {
	if c.DebugTime == "" {
		return time.Time{}, false, nil
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, false, err
	}
	t, err = schedule.ParseInstant(c.DebugTime, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("RETREAT_DEBUG_TIME: %w", err)
	}
	return t, true, nil
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("RETREAT_LOG_LEVEL: %w", err)
	}
	return level, nil
}
