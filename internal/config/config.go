package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultFileName   = ".s3sentry.yaml"
	alternateFileName = ".s3sentry.yml"
)

// Config holds persistent defaults loaded from a config file.
type Config struct {
	Profile      string `yaml:"profile"`
	Region       string `yaml:"region"`
	Format       string `yaml:"format"`
	Timeout      string `yaml:"timeout"`
	Concurrency  int    `yaml:"concurrency"`
	DayThreshold int    `yaml:"day_threshold"`

	// Patterns are user-supplied detection rules appended to the builtin
	// rule set. Keyed by category name.
	Patterns map[string]Pattern `yaml:"patterns"`
}

// Pattern is one custom detection rule.
type Pattern struct {
	Regex    string `yaml:"regex"`
	Severity string `yaml:"severity"`
}

// ConfigError reports an invalid configuration value. It is fatal and is
// surfaced before any scanning starts.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TimeoutDuration parses the Timeout field as a Go duration.
// Returns 0 if empty or unparseable.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// CompilePatterns validates and compiles the custom pattern table, returning
// rules in category-name order so detector output stays deterministic.
func (c *Config) CompilePatterns() ([]CompiledPattern, error) {
	if len(c.Patterns) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(c.Patterns))
	for name := range c.Patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	compiled := make([]CompiledPattern, 0, len(names))
	for _, name := range names {
		p := c.Patterns[name]
		rx, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, &ConfigError{Field: "patterns." + name, Err: err}
		}
		severity := p.Severity
		if severity == "" {
			severity = "medium"
		}
		switch severity {
		case "critical", "high", "medium", "low":
		default:
			return nil, &ConfigError{
				Field: "patterns." + name,
				Err:   fmt.Errorf("unknown severity %q", p.Severity),
			}
		}
		compiled = append(compiled, CompiledPattern{
			Category: name,
			Regex:    rx,
			Severity: severity,
		})
	}
	return compiled, nil
}

// CompiledPattern is a validated custom rule ready for the detector pipeline.
type CompiledPattern struct {
	Category string
	Regex    *regexp.Regexp
	Severity string
}

// Load searches for a config file in the given directory and the user's home
// directory. Returns a zero-value Config if no file is found.
func Load(dir string) (Config, error) {
	paths := searchPaths(dir)
	for _, p := range paths {
		cfg, found, err := loadPath(p)
		if err != nil {
			return Config{}, err
		}
		if found {
			return cfg, nil
		}
	}
	return Config{}, nil
}

func searchPaths(dir string) []string {
	var paths []string
	if dir != "" {
		paths = append(paths, filepath.Join(dir, defaultFileName))
		paths = append(paths, filepath.Join(dir, alternateFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, defaultFileName))
		paths = append(paths, filepath.Join(home, alternateFileName))
	}
	return paths
}

func loadPath(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}
		return Config{}, false, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, false, err
	}
	return cfg, true, nil
}
