package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// RunConfigPath is the HCL run configuration (settings + tickets).
	RunConfigPath string

	// Overrides applied on top of the run configuration's settings block.
	WorkflowID  string
	Computation string
	Workdir     string
	Debug       bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.RunConfigPath == "" {
		return nil, errors.New("RunConfigPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
