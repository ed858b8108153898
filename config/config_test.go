// ABOUTME: Tests for config loading, defaults, and validation

package config

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsNegativeWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative workers")
	}
}

func TestValidateRejectsNonPositiveTopK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopK = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for top_k = 0")
	}
}

func TestValidateRejectsUnknownOutputFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported output_format")
	}
}

func TestApplyEnvOverridesWorkers(t *testing.T) {
	t.Setenv("HEAPLENS_WORKERS", "4")
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
}

func TestApplyEnvOverridesOutputFormat(t *testing.T) {
	t.Setenv("HEAPLENS_OUTPUT_FORMAT", "json")
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	if cfg.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", cfg.OutputFormat)
	}
}
