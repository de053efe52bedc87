package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/polofsson/logingate/host"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ScriptDir != DefaultScriptDir {
		t.Fatalf("script_dir = %q, want %q", cfg.ScriptDir, DefaultScriptDir)
	}
	d, err := cfg.Decision()
	if err != nil || d != host.Allow {
		t.Fatalf("default decision = %v (%v), want allow", d, err)
	}
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "script_dir: /srv/gate/scripts\ndefault_decision: deny\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, hash, err := LoadWithHash(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ScriptDir != "/srv/gate/scripts" {
		t.Fatalf("script_dir = %q", cfg.ScriptDir)
	}
	if d, _ := cfg.Decision(); d != host.Deny {
		t.Fatalf("decision = %v, want deny", d)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log_level = %q, want default info", cfg.LogLevel)
	}
	if !strings.HasPrefix(hash, "sha256:") {
		t.Fatalf("hash = %q, want sha256 prefix", hash)
	}
}

func TestLoadRejectsInvalidDecision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_decision: maybe\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid default_decision")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t:"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
