// Package config loads CLI settings from the environment and input scripts
// from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FRAMEFSM_"

var (
	// ErrParsingConfig wraps env parsing failures.
	ErrParsingConfig = errors.New("failed to parse config")
	// ErrInvalidConfig wraps validation failures.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the runtime settings of the demo harness.
type Config struct {
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"console"`
	FrameRate   time.Duration `env:"FRAME_RATE" envDefault:"16667us"`
	PhysicsRate time.Duration `env:"PHYSICS_RATE" envDefault:"16667us"`
	Frames      int           `env:"FRAMES" envDefault:"300"`
	TraceDir    string        `env:"TRACE_DIR" envDefault:"traces"`
	TraceFormat string        `env:"TRACE_FORMAT" envDefault:"json"`
	MetricsAddr string        `env:"METRICS_ADDR"`
}

// Load reads an optional dotenv file and parses FRAMEFSM_* variables.
// With an empty envFile a ".env" in the working directory is used when it
// exists.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame rate must be positive, got %v", c.FrameRate))
	}
	if c.PhysicsRate <= 0 {
		errs = append(errs, fmt.Errorf("physics rate must be positive, got %v", c.PhysicsRate))
	}
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames must not be negative, got %d", c.Frames))
	}
	switch c.TraceFormat {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("trace format must be json or yaml, got %q", c.TraceFormat))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
