package config

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Samples != 10000 || cfg.Seed != 1 || cfg.WitnessSamples != 5000 || cfg.Parallelism != 4 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.StrictEpsilon != 0.0001 {
		t.Fatalf("expected epsilon 0.0001, got %v", cfg.StrictEpsilon)
	}
	if cfg.DBPath != "exprdiag.db" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EXPRDIAG_SAMPLES", "250")
	t.Setenv("EXPRDIAG_SEED", "42")
	t.Setenv("EXPRDIAG_DB", "/tmp/runs.db")
	t.Setenv("EXPRDIAG_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Samples != 250 || cfg.Seed != 42 || cfg.DBPath != "/tmp/runs.db" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("EXPRDIAG_SAMPLES", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseDefersValidation(t *testing.T) {
	t.Setenv("EXPRDIAG_LOG_LEVEL", "chatty")

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected Load to reject log level, got %v", err)
	}
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LogLevel != "chatty" {
		t.Fatalf("expected raw log level, got %q", cfg.LogLevel)
	}
	cfg.LogLevel = "info"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("overridden config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Samples: 1, WitnessSamples: 1, Parallelism: 1, StrictEpsilon: 1e-4, LogLevel: "warn"}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero samples", func(c *Config) { c.Samples = 0 }},
		{"zero witness samples", func(c *Config) { c.WitnessSamples = 0 }},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"zero epsilon", func(c *Config) { c.StrictEpsilon = 0 }},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		cfg := base
		tt.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}
