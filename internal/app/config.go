package app

import (
	"errors"

	"github.com/specialistvlad/texpen/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // settings files or directories of .hcl files
	Sources     []string // .tex files or directories

	OutDir    string
	Watch     bool
	Probe     bool
	Overrides config.Overrides
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Sources) == 0 && !cfg.Probe {
		return nil, errors.New("at least one source path is required")
	}
	if cfg.Watch && cfg.Probe {
		return nil, errors.New("watch and probe cannot be combined")
	}
	return &cfg, nil
}
