package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMustLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
storage:
  folder: /var/lib/a2sensor/storage
output:
  path: /var/lib/a2sensor/sensors.json
sensors:
  config_path: /etc/a2sensor/sensors.yaml
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := MustLoad(path)

	if cfg.Env != "prod" {
		t.Fatalf("expected default env prod, got %s", cfg.Env)
	}
	if cfg.Refresh.Interval != time.Minute {
		t.Fatalf("expected default interval 1m, got %s", cfg.Refresh.Interval)
	}
	if cfg.Health.Address != ":8080" {
		t.Fatalf("expected default health address :8080, got %s", cfg.Health.Address)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Fatalf("expected default log info/json, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Output.Retry.MaxAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.Output.Retry.MaxAttempts)
	}
	if cfg.Journal.Enabled {
		t.Fatal("expected journal disabled by default")
	}
}

func TestMustLoadPanicsOnMissingFile(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing config file")
		}
	}()

	MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
}
