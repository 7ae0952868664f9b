package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pankbase/bucket-infra/internal/app"
	"github.com/pankbase/bucket-infra/internal/config"
	"github.com/pankbase/bucket-infra/internal/logging"
	"github.com/pankbase/bucket-infra/internal/pankbase"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	variants   []string
	logLevel   string
}

// load reads the configuration, applies flag overrides and builds the logger.
// Diagnostics go to stderr; command results go to stdout.
func (o *rootOptions) load(overrides ...func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if len(o.variants) > 0 {
		cfg.Variants = o.variants
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// synthesize loads the configuration and synthesizes the assembly in memory.
func (o *rootOptions) synthesize() (*config.Config, *app.Assembly, error) {
	cfg, logger, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	asm, err := pankbase.Synthesize(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("synthesis failed: %w", err)
	}
	return cfg, asm, nil
}
