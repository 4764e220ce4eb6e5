package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromYAMLAppliesDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("auth:\n  jwt_secret: s3cret\n"))
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.BasePath != DefaultBasePath {
		t.Errorf("base path = %q", cfg.Server.BasePath)
	}
	if cfg.GitHub.LookbackDays != DefaultLookbackDays {
		t.Errorf("lookback = %d", cfg.GitHub.LookbackDays)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
}

func TestFromYAMLOverrides(t *testing.T) {
	raw := []byte(`
server:
  addr: 0.0.0.0:9999
  base_path: /api
github:
  webhook_secret: hook
  api_base_url: http://localhost:9000
  lookback_days: 7
`)
	cfg, err := FromYAML(raw)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9999" || cfg.Server.BasePath != "/api" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.GitHub.WebhookSecret != "hook" || cfg.GitHub.LookbackDays != 7 {
		t.Errorf("github = %+v", cfg.GitHub)
	}
}

func TestFromYAMLRejectsNegativeLookback(t *testing.T) {
	if _, err := FromYAML([]byte("github:\n  lookback_days: -1\n")); err == nil {
		t.Fatal("expected error for negative lookback")
	}
}

func TestFromYAMLRejectsGarbage(t *testing.T) {
	if _, err := FromYAML([]byte("server: [not-a-map")); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("missing file should yield defaults, got %+v", cfg.Server)
	}

	path := filepath.Join(dir, "flightpath.yml")
	if err := os.WriteFile(path, []byte("github:\n  lookback_days: 14\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.GitHub.LookbackDays != 14 {
		t.Errorf("lookback = %d, want file value", cfg.GitHub.LookbackDays)
	}
}

func TestPath(t *testing.T) {
	if got := Path(""); got != filepath.Join(".", "flightpath.yml") {
		t.Errorf("Path(\"\") = %q", got)
	}
	if got := Path("/tmp/ws"); got != filepath.Join("/tmp/ws", "flightpath.yml") {
		t.Errorf("Path = %q", got)
	}
}
