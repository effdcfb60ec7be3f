// Package config reads the game configuration from the environment.
package config

import (
	"log/slog"
	"os"

	"github.com/myrjola/unsolved/internal/envstruct"
	"github.com/myrjola/unsolved/internal/errors"
	"github.com/myrjola/unsolved/internal/models"
	"github.com/myrjola/unsolved/internal/saves"
)

var ErrInvalidConfig = errors.NewSentinel("invalid configuration")

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Sanity modes.
const (
	SanityLegacy  = "legacy"
	SanityTrinity = "trinity"
)

type Config struct {
	Store       string `env:"UNSOLVED_STORE" envDefault:"sqlite"`
	SQLiteURL   string `env:"UNSOLVED_SQLITE_URL" envDefault:"./unsolved.sqlite"`
	RedisAddr   string `env:"UNSOLVED_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix string `env:"UNSOLVED_REDIS_PREFIX" envDefault:"unsolved:"`
	LogLevel    string `env:"UNSOLVED_LOG_LEVEL" envDefault:"info"`

	StartHour        float64 `env:"UNSOLVED_START_HOUR" envDefault:"12"`
	CorruptionChance float64 `env:"UNSOLVED_CORRUPTION_CHANCE" envDefault:"0.01"`
	ChecksumPolicy   string  `env:"UNSOLVED_CHECKSUM_POLICY" envDefault:"payload"`
	SanityMode       string  `env:"UNSOLVED_SANITY_MODE" envDefault:"legacy"`
	// Seed makes every roll reproducible when non-zero.
	Seed int `env:"UNSOLVED_SEED" envDefault:"0"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string `env:"UNSOLVED_OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string `env:"UNSOLVED_OPENAI_MODEL" envDefault:""`
}

// Load populates a Config from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom populates and validates a Config using lookupEnv.
func LoadFrom(lookupEnv func(string) (string, bool)) (Config, error) {
	var cfg Config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return Config{}, errors.Wrap(err, "populate config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	invalid := func(key, value string) error {
		return errors.Wrap(ErrInvalidConfig, "validate config", slog.String("key", key), slog.String("value", value))
	}
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return invalid("UNSOLVED_STORE", c.Store)
	}
	switch c.SanityMode {
	case SanityLegacy, SanityTrinity:
	default:
		return invalid("UNSOLVED_SANITY_MODE", c.SanityMode)
	}
	if _, err := saves.ParsePolicy(c.ChecksumPolicy); err != nil {
		return invalid("UNSOLVED_CHECKSUM_POLICY", c.ChecksumPolicy)
	}
	if c.CorruptionChance < 0 || c.CorruptionChance > 1 {
		return errors.Wrap(ErrInvalidConfig, "validate config",
			slog.String("key", "UNSOLVED_CORRUPTION_CHANCE"), slog.Float64("value", c.CorruptionChance))
	}
	return nil
}

// NewSanity creates the full-sanity meters of the configured mode.
func (c Config) NewSanity() models.SanityState {
	if c.SanityMode == SanityTrinity {
		return models.NewTrinitySanity()
	}
	return models.NewLegacySanity()
}

// Policy returns the validated checksum policy.
func (c Config) Policy() saves.Policy {
	return saves.Policy(c.ChecksumPolicy)
}
