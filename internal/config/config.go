// Package config loads the pankbase-buckets configuration file.
//
// Configuration comes from a single YAML file, pankbase.yaml in the working
// directory unless --config names another one. A missing default file means
// defaults; a missing explicit file is an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pankbase/bucket-infra/internal/variant"
)

// DefaultFile is the configuration file read when none is given.
const DefaultFile = "pankbase.yaml"

var (
	// ErrUnknownVariant is returned for variants other than standard and restricted.
	ErrUnknownVariant = errors.New("unknown variant")
	// ErrInvalid is returned for any other invalid setting.
	ErrInvalid = errors.New("invalid configuration")
)

// Config is the pankbase-buckets configuration.
type Config struct {
	// OutDir receives the synthesized templates and manifest.
	// Default: cdk.out
	OutDir string `yaml:"outdir"`

	// Format of the synthesized templates: json or yaml.
	Format string `yaml:"format"`

	// Variants lists the bucket families to synthesize, in order.
	// Default: [standard, restricted]
	Variants []string `yaml:"variants"`

	// AccessLogging sends server access logs of content buckets to their log buckets.
	AccessLogging bool `yaml:"accessLogging"`

	Env EnvConfig `yaml:"env"`
	Log LogConfig `yaml:"log"`
}

// EnvConfig is the deployment environment recorded in the manifest.
type EnvConfig struct {
	// Account is left to the provisioning tool when empty.
	Account string `yaml:"account"`
	Region  string `yaml:"region"`
}

// LogConfig configures diagnostics on stderr.
type LogConfig struct {
	// Level: debug, info, warn or error.
	Level string `yaml:"level"`
	// Format: text or json.
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		OutDir:   "cdk.out",
		Format:   "json",
		Variants: []string{variant.Standard.Name, variant.Restricted.Name},
		Env: EnvConfig{
			Region: "us-west-2",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, or DefaultFile when path is empty, over the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg, err := LoadFile(DefaultFile)
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile reads a specific configuration file over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.OutDir == "" {
		errs = append(errs, fmt.Errorf("%w: outdir is empty", ErrInvalid))
	}
	switch c.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("%w: format %q (want json or yaml)", ErrInvalid, c.Format))
	}

	if len(c.Variants) == 0 {
		errs = append(errs, fmt.Errorf("%w: no variants selected", ErrInvalid))
	}
	seen := make(map[string]bool)
	for _, name := range c.Variants {
		if _, err := variant.Lookup(name); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownVariant, name))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("%w: variant %q listed twice", ErrInvalid, name))
		}
		seen[name] = true
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format))
	}

	return errors.Join(errs...)
}

// SelectedVariants resolves the configured variant names.
func (c *Config) SelectedVariants() ([]variant.Variant, error) {
	variants := make([]variant.Variant, 0, len(c.Variants))
	for _, name := range c.Variants {
		v, err := variant.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
		}
		variants = append(variants, v)
	}
	return variants, nil
}
