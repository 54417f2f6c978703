package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if cfg.BindPort != 8080 {
		t.Fatalf("expected default port 8080, got %d\n", cfg.BindPort)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "bind_address: 0.0.0.0\nbind_port: 9090\npaths:\n  primary: /tmp/p.json\n  mirror: /tmp/m.json\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if cfg.BindAddress != "0.0.0.0" || cfg.BindPort != 9090 {
		t.Fatalf("expected yaml overrides applied, got %+v\n", cfg)
	}
	if cfg.Paths.Primary != "/tmp/p.json" {
		t.Fatalf("expected primary path override, got %q\n", cfg.Paths.Primary)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v\n", err)
	}
	if cfg.BindPort != 8080 {
		t.Fatalf("expected default port, got %d\n", cfg.BindPort)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("WEBGRAPH_BIND_PORT", "1234")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v\n", err)
	}
	if cfg.BindPort != 1234 {
		t.Fatalf("expected env override to port 1234, got %d\n", cfg.BindPort)
	}
}

func TestAddr(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.BindAddress = "127.0.0.1"
	cfg.BindPort = 8080
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr %q\n", cfg.Addr())
	}
}
