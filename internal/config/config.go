// Package config loads gate configuration from YAML.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/polofsson/logingate/host"
)

// DefaultPath is where the gate looks for configuration when no path is
// given.
const DefaultPath = "/etc/logingate/config.yaml"

// DefaultScriptDir is the administrator-managed directory holding the
// four login scripts.
const DefaultScriptDir = "/etc/logingate/scripts"

// Config holds all configurable gate parameters.
type Config struct {
	// ScriptDir is the base directory for premount-root, premount-user,
	// postmount-root and postmount-user.
	ScriptDir string `yaml:"script_dir"`

	// DefaultDecision names the fail-open policy: the decision reported
	// when the gate cannot obtain one from a script. "allow" or "deny".
	DefaultDecision string `yaml:"default_decision"`

	// AuditLog is the path of the hash-chained decision log; empty
	// disables auditing.
	AuditLog string `yaml:"audit_log"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ScriptDir:       DefaultScriptDir,
		DefaultDecision: string(host.DefaultDecision),
		LogLevel:        "info",
	}
}

// Decision returns the configured default decision.
func (c *Config) Decision() (host.Decision, error) {
	switch host.Decision(c.DefaultDecision) {
	case host.Allow:
		return host.Allow, nil
	case host.Deny:
		return host.Deny, nil
	default:
		return "", fmt.Errorf("invalid default_decision %q", c.DefaultDecision)
	}
}

// Load reads configuration from a YAML file. Empty path falls back to
// DefaultPath. Missing file returns defaults. Invalid YAML is an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads configuration and returns the SHA-256 of the raw
// YAML bytes on disk, recorded in audit entries so a decision can be
// tied to the configuration that produced it. When no file exists the
// hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return Default(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.Decision(); err != nil {
		return nil, "", err
	}

	return cfg, hash, nil
}
