package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Tracing controls how trace expressions are kept by later stages.
type Tracing string

const (
	TracingSilent  Tracing = "silent"
	TracingCompact Tracing = "compact"
	TracingVerbose Tracing = "verbose"
)

// ColorMode controls coloured diagnostics on the terminal.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

const (
	DefaultCachePath = ".vellum/interfaces.db"
	DefaultLogLevel  = "info"
	DefaultJobs      = 4
)

// Config represents the top-level vellum.yaml configuration.
type Config struct {
	// Package is the package identifier stamped on every compiled module.
	Package string `yaml:"package"`

	// Modules lists the module interchange files to check, relative to the
	// configuration file.
	Modules []string `yaml:"modules"`

	// Cache is the sqlite database holding compiled module interfaces.
	Cache string `yaml:"cache,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	Tracing Tracing   `yaml:"tracing,omitempty"`
	Color   ColorMode `yaml:"color,omitempty"`

	// Jobs bounds how many modules of one dependency layer are checked at once.
	Jobs int `yaml:"jobs,omitempty"`

	// Dir is the directory containing the configuration file.
	Dir string `yaml:"-"`
}

// LoadConfig reads and parses a vellum.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig parses vellum.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig searches for vellum.yaml starting from dir and walking up to
// parent directories. It returns an empty path when none is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range ProjectFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ModulePaths returns the module files resolved against the config directory.
func (c *Config) ModulePaths() []string {
	paths := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		if filepath.IsAbs(m) || c.Dir == "" {
			paths[i] = m
		} else {
			paths[i] = filepath.Join(c.Dir, m)
		}
	}
	return paths
}

// CachePath returns the cache database path resolved against the config
// directory.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache) || c.Dir == "" {
		return c.Cache
	}
	return filepath.Join(c.Dir, c.Cache)
}

func (c *Config) setDefaults() {
	if c.Cache == "" {
		c.Cache = DefaultCachePath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Tracing == "" {
		c.Tracing = TracingVerbose
	}
	if c.Color == "" {
		c.Color = ColorAuto
	}
	if c.Jobs == 0 {
		c.Jobs = DefaultJobs
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Package == "" {
		return fmt.Errorf("%s: package is required", path)
	}
	if len(c.Modules) == 0 {
		return fmt.Errorf("%s: no modules defined", path)
	}
	seen := make(map[string]int)
	for i, m := range c.Modules {
		if m == "" {
			return fmt.Errorf("%s: modules[%d]: empty path", path, i)
		}
		if j, ok := seen[m]; ok {
			return fmt.Errorf("%s: modules[%d]: %q already listed at modules[%d]", path, i, m, j)
		}
		seen[m] = i
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s: unknown log_level %q", path, c.LogLevel)
	}
	switch c.Tracing {
	case TracingSilent, TracingCompact, TracingVerbose:
	default:
		return fmt.Errorf("%s: unknown tracing %q", path, c.Tracing)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: unknown color mode %q", path, c.Color)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%s: jobs must be at least 1, got %d", path, c.Jobs)
	}
	return nil
}
