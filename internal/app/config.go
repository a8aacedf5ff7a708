package app

import (
	"errors"
	"time"
)

// defaultPollInterval is how often a waited-on execution is polled.
const defaultPollInterval = 30 * time.Second

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath points at the YAML pipeline description.
	ConfigPath string
	// InputDataPath is the object-store root holding the input data. Empty
	// selects the account's default artifact bucket.
	InputDataPath string
	// RoleARN is the execution role the remote pipeline steps assume.
	RoleARN string
	// Region overrides the platform region resolved from the environment.
	Region string

	// DryRun renders and prints the definition document without touching
	// the platform.
	DryRun bool
	// Wait blocks until the started execution reaches a terminal status.
	Wait bool
	// PollInterval is the describe cadence used with Wait.
	PollInterval time.Duration

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.RoleARN == "" && !cfg.DryRun {
		return nil, errors.New("RoleARN is required unless running with DryRun")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	return &cfg, nil
}
