// Package config loads and validates the codebox configuration.
// The config lives in codebox.yaml at the workspace root; every field has a
// sensible default so a missing file yields a working setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	// WorkDir is the workspace root. Boxes are created under
	// <WorkDir>/boxes/<sessionID>.
	WorkDir string `yaml:"work_dir"`

	// Pools maps alias (with or without the @ prefix) to a physical root
	// directory, mounted read-only unless listed in WritablePools.
	Pools map[string]string `yaml:"pools"`

	// WritablePools lists pool aliases that accept writes.
	WritablePools []string `yaml:"writable_pools"`

	// Discovery controls capability disclosure tiers.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Gate controls the command danger gate.
	Gate GateConfig `yaml:"gate"`

	// Logging controls the category log files.
	Logging LoggingConfig `yaml:"logging"`

	// Audit controls the sqlite audit trail.
	Audit AuditConfig `yaml:"audit"`
}

// DiscoveryConfig holds the disclosure tier thresholds.
type DiscoveryConfig struct {
	// DynamicThreshold is the largest manifest count that still gets full
	// inline rendering.
	DynamicThreshold int `yaml:"dynamic_threshold"`

	// SearchThreshold is the largest manifest count that still gets an
	// index; above it only search+explain are exposed.
	SearchThreshold int `yaml:"search_threshold"`
}

// GateConfig holds the approval gate settings.
type GateConfig struct {
	// Enabled turns human-in-the-loop approval of dangerous commands on.
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig mirrors the logging package's initialization inputs.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// AuditConfig holds the audit store settings.
type AuditConfig struct {
	// Enabled turns the sqlite audit trail on.
	Enabled bool `yaml:"enabled"`
}

// StateDir returns the workspace state directory holding logs and the
// audit database.
func (c *Config) StateDir() string {
	return filepath.Join(c.WorkDir, ".codebox")
}

// Default returns a config with all defaults applied.
func Default() *Config {
	return &Config{
		WorkDir: ".",
		Pools:   map[string]string{},
		Discovery: DiscoveryConfig{
			DynamicThreshold: 8,
			SearchThreshold:  80,
		},
		Gate: GateConfig{Enabled: true},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
		Audit: AuditConfig{Enabled: true},
	}
}

// Load reads codebox.yaml from the given workspace, applies defaults for
// missing fields, then applies CODEBOX_* environment overrides.
// A missing file is not an error.
func Load(workspace string) (*Config, error) {
	cfg := Default()
	cfg.WorkDir = workspace

	path := filepath.Join(workspace, "codebox.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = workspace
	}
	if cfg.Discovery.DynamicThreshold == 0 {
		cfg.Discovery.DynamicThreshold = 8
	}
	if cfg.Discovery.SearchThreshold == 0 {
		cfg.Discovery.SearchThreshold = 80
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	applyEnvOverrides(cfg)
	return cfg, cfg.Validate()
}

// applyEnvOverrides lets CODEBOX_* variables win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODEBOX_WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}
	if v := os.Getenv("CODEBOX_GATE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Gate.Enabled = b
		}
	}
	if v := os.Getenv("CODEBOX_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.DebugMode = b
		}
	}
	if v := os.Getenv("CODEBOX_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CODEBOX_POOLS"); v != "" {
		// alias=dir pairs, comma separated.
		for _, pair := range strings.Split(v, ",") {
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
				cfg.Pools[parts[0]] = parts[1]
			}
		}
	}
}

// Validate checks the config for internally inconsistent values.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("work_dir must not be empty")
	}
	if c.Discovery.DynamicThreshold < 0 || c.Discovery.SearchThreshold < 0 {
		return fmt.Errorf("discovery thresholds must be non-negative")
	}
	if c.Discovery.DynamicThreshold > c.Discovery.SearchThreshold {
		return fmt.Errorf("dynamic_threshold (%d) must not exceed search_threshold (%d)",
			c.Discovery.DynamicThreshold, c.Discovery.SearchThreshold)
	}
	for _, alias := range c.WritablePools {
		key := alias
		if !strings.HasPrefix(key, "@") {
			key = "@" + key
		}
		found := false
		for a := range c.Pools {
			pa := a
			if !strings.HasPrefix(pa, "@") {
				pa = "@" + pa
			}
			if pa == key {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("writable pool %q is not registered in pools", alias)
		}
	}
	return nil
}
