// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/caarlos0/env/v11"
)

// #region config
// Config is the runtime configuration of the exprdiag CLI. CLI flags override
// these values.
type Config struct {
	DBPath         string  `env:"EXPRDIAG_DB"              envDefault:"exprdiag.db"`
	Samples        int     `env:"EXPRDIAG_SAMPLES"         envDefault:"10000"`
	Seed           uint64  `env:"EXPRDIAG_SEED"            envDefault:"1"`
	StrictEpsilon  float64 `env:"EXPRDIAG_STRICT_EPSILON"  envDefault:"0.0001"`
	WitnessSamples int     `env:"EXPRDIAG_WITNESS_SAMPLES" envDefault:"5000"`
	Parallelism    int     `env:"EXPRDIAG_PARALLELISM"     envDefault:"4"`
	LogLevel       string  `env:"EXPRDIAG_LOG_LEVEL"       envDefault:"warn"`
}

var ErrInvalid = errors.New("invalid configuration")

// Parse reads the environment without validating it, so callers can apply
// overrides before calling Validate.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that env tags cannot express.
func (c Config) Validate() error {
	switch {
	case c.Samples <= 0:
		return fmt.Errorf("%w: samples %d must be positive", ErrInvalid, c.Samples)
	case c.WitnessSamples <= 0:
		return fmt.Errorf("%w: witness samples %d must be positive", ErrInvalid, c.WitnessSamples)
	case c.Parallelism <= 0:
		return fmt.Errorf("%w: parallelism %d must be positive", ErrInvalid, c.Parallelism)
	case !(c.StrictEpsilon > 0) || math.IsInf(c.StrictEpsilon, 0):
		return fmt.Errorf("%w: strict epsilon %v must be positive and finite", ErrInvalid, c.StrictEpsilon)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// #endregion config
