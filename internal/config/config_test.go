package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.IdleTimeout != 30*time.Second {
		t.Errorf("Expected 30s idle timeout, got %s", cfg.IdleTimeout)
	}
	if cfg.LaserHold != 5*time.Second || cfg.TickInterval != time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.DBPath != filepath.Join("state", "system", "objects.db") {
		t.Errorf("unexpected default db path %q", cfg.DBPath)
	}
	if len(cfg.Emotions) != 6 {
		t.Errorf("Expected 6 built-in emotions, got %d", len(cfg.Emotions))
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.yaml")
	data := `
state_path: /tmp/cube-state
idle_timeout: 45s
db_driver: sqlite
location_hint: 厨房
emotions:
  calm:
    duration: 5
    min_angle: 25
    max_angle: 55
    color: "#000000"
  sleepy:
    duration: 12
    min_angle: 5
    max_angle: 20
    color: "#111111"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CUBE_TICK_INTERVAL", "250ms")
	t.Setenv("DISCORD_TOKEN", "abc")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StatePath != "/tmp/cube-state" || cfg.DBDriver != "sqlite" || cfg.LocationHint != "厨房" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.IdleTimeout != 45*time.Second {
		t.Errorf("Expected 45s idle timeout, got %s", cfg.IdleTimeout)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("env override not applied: %s", cfg.TickInterval)
	}
	if !cfg.Discord.Enabled() {
		t.Error("Expected discord enabled from env")
	}
	if cfg.Emotions["calm"].Duration != 5 {
		t.Errorf("calm override not applied: %+v", cfg.Emotions["calm"])
	}
	if _, ok := cfg.Emotions["excited"]; !ok {
		t.Error("built-in emotions should survive overrides")
	}
	if _, ok := cfg.Emotions["sleepy"]; !ok {
		t.Error("new emotion should be added")
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("CUBE_IDLE_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Error("Expected error for unparseable duration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DetectionThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for threshold out of range")
	}

	cfg = Default()
	delete(cfg.Emotions, "calm")
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when default emotion is missing")
	}
}
