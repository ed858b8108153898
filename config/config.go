// ABOUTME: Configuration loading for the heaplens CLI
// ABOUTME: YAML file with environment variable overrides, following XDG-ish conventions

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the heaplens CLI and the analysis
// engine it drives.
type Config struct {
	// Workers is loaded but not passed to the engine; the Graph Builder
	// always sizes its shard concurrency by GOMAXPROCS.
	Workers int `yaml:"workers" env:"HEAPLENS_WORKERS"`

	// TopK is the default number of rows printed by `heaplens analyze`.
	TopK int `yaml:"top_k" env:"HEAPLENS_TOP_K"`

	// MetricsAddr, when non-empty, serves /metrics for the Prometheus sink.
	MetricsAddr string `yaml:"metrics_addr" env:"HEAPLENS_METRICS_ADDR"`

	// NoColor disables fatih/color output, independent of the NO_COLOR
	// convention the color package already honors.
	NoColor bool `yaml:"no_color" env:"HEAPLENS_NO_COLOR"`

	// OutputFormat selects how `heaplens analyze` prints its Top-K view:
	// "table", "json".
	OutputFormat string `yaml:"output_format" env:"HEAPLENS_OUTPUT_FORMAT"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:      0,
		TopK:         20,
		MetricsAddr:  "",
		NoColor:      false,
		OutputFormat: "table",
	}
}

func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".heaplens/config.yaml"
	}
	return filepath.Join(home, ".heaplens", "config.yaml")
}

// Load reads configuration with the following priority (highest to
// lowest): environment variables, ./.heaplens/config.yaml,
// ~/.heaplens/config.yaml, defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(globalConfigFilePath()); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", globalConfigFilePath(), err)
		}
	}

	const projectConfigPath = ".heaplens/config.yaml"
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEAPLENS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("HEAPLENS_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
	if v := os.Getenv("HEAPLENS_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("HEAPLENS_NO_COLOR"); v != "" {
		cfg.NoColor = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("HEAPLENS_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = v
	}
}

// Validate checks the configuration for obviously invalid values.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	switch c.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output_format: %s (must be 'table' or 'json')", c.OutputFormat)
	}
	return nil
}
