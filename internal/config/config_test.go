package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "" {
		t.Fatalf("expected empty region, got %q", cfg.Region)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	content := `region: us-west-2
format: json
timeout: 5m
concurrency: 4
day_threshold: 30
patterns:
  EmployeeID:
    regex: 'EMP-[0-9]{6}'
    severity: high
`
	if err := os.WriteFile(filepath.Join(dir, ".s3sentry.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "us-west-2" {
		t.Fatalf("expected region us-west-2, got %q", cfg.Region)
	}
	if cfg.Format != "json" {
		t.Fatalf("expected format json, got %q", cfg.Format)
	}
	if cfg.Concurrency != 4 {
		t.Fatalf("expected concurrency 4, got %d", cfg.Concurrency)
	}
	if cfg.DayThreshold != 30 {
		t.Fatalf("expected day_threshold 30, got %d", cfg.DayThreshold)
	}
	if cfg.TimeoutDuration() != 5*time.Minute {
		t.Fatalf("expected 5m timeout, got %v", cfg.TimeoutDuration())
	}
	if len(cfg.Patterns) != 1 {
		t.Fatalf("expected 1 custom pattern, got %d", len(cfg.Patterns))
	}
}

func TestLoad_AlternateExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".s3sentry.yml"), []byte("region: eu-west-1\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("expected region eu-west-1, got %q", cfg.Region)
	}
}

func TestTimeoutDuration_Invalid(t *testing.T) {
	cfg := Config{Timeout: "not-a-duration"}
	if cfg.TimeoutDuration() != 0 {
		t.Fatalf("expected 0 for unparseable timeout")
	}
}

func TestCompilePatterns_Ordered(t *testing.T) {
	cfg := Config{Patterns: map[string]Pattern{
		"Zeta":  {Regex: `z+`},
		"Alpha": {Regex: `a+`, Severity: "high"},
	}}

	compiled, err := cfg.CompilePatterns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(compiled) != 2 {
		t.Fatalf("expected 2 compiled patterns, got %d", len(compiled))
	}
	if compiled[0].Category != "Alpha" || compiled[1].Category != "Zeta" {
		t.Fatalf("expected category-name order, got %s, %s", compiled[0].Category, compiled[1].Category)
	}
	if compiled[0].Severity != "high" {
		t.Fatalf("expected high severity, got %s", compiled[0].Severity)
	}
	if compiled[1].Severity != "medium" {
		t.Fatalf("expected medium default severity, got %s", compiled[1].Severity)
	}
}

func TestCompilePatterns_BadRegex(t *testing.T) {
	cfg := Config{Patterns: map[string]Pattern{
		"Broken": {Regex: `([unclosed`},
	}}

	_, err := cfg.CompilePatterns()
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
}

func TestCompilePatterns_BadSeverity(t *testing.T) {
	cfg := Config{Patterns: map[string]Pattern{
		"Odd": {Regex: `x`, Severity: "urgent"},
	}}

	if _, err := cfg.CompilePatterns(); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}
