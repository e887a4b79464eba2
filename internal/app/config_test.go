package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"fuselink/internal/app"
)

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
node = "127.0.0.1:7420"
local_id = 2
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := app.LoadConfig(path, app.Config{Home: "/keep", LogLevel: "info"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Home != "/keep" {
		t.Fatalf("home should keep its default, got %q", cfg.Home)
	}
	if cfg.Node != "127.0.0.1:7420" {
		t.Fatalf("node: got %q", cfg.Node)
	}
	if cfg.LocalID != 2 {
		t.Fatalf("local_id: got %d", cfg.LocalID)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level: got %q", cfg.LogLevel)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := app.LoadConfig(filepath.Join(t.TempDir(), "nope.toml"), app.Config{}); err == nil {
		t.Fatal("want error for missing file")
	}
}
