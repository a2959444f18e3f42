package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/meshmap/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Simulation.DragAlphaTarget != 0.3 {
		t.Errorf("DragAlphaTarget = %v, want 0.3", cfg.Simulation.DragAlphaTarget)
	}
	if cfg.Styles["Coordinator"] != "coordinator" {
		t.Errorf("Coordinator style = %q", cfg.Styles["Coordinator"])
	}
	if cfg.Cache.Backend != CacheFile {
		t.Errorf("cache backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	if dir := Dir(); dir != "/tmp/test-xdg/meshmap" {
		t.Errorf("Dir() = %q, want /tmp/test-xdg/meshmap", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, _ := os.UserHomeDir()
	if dir, want := Dir(), filepath.Join(home, ".config", "meshmap"); dir != want {
		t.Errorf("Dir() = %q, want %q", dir, want)
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("expected defaults, got addr %q", cfg.Server.Addr)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[simulation]
width = 1024
link_distance = 90
drag_alpha_target = 0.5
tick_interval = "50ms"

[styles]
Router = "relay"

[cache]
backend = "redis"
redis_addr = "redis:6379"
ttl = "1h"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Simulation.Width != 1024 || cfg.Simulation.Height != 600 {
		t.Errorf("size = %vx%v, want 1024x600", cfg.Simulation.Width, cfg.Simulation.Height)
	}
	if cfg.Simulation.LinkDistance != 90 {
		t.Errorf("LinkDistance = %v, want 90", cfg.Simulation.LinkDistance)
	}
	if cfg.Simulation.TickInterval != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", cfg.Simulation.TickInterval)
	}
	if cfg.Styles["Router"] != "relay" || cfg.Styles["Coordinator"] != "coordinator" {
		t.Errorf("styles = %v, want Router overridden and defaults kept", cfg.Styles)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.TTL != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[simulation\n"},
		{"unknown key", "[simulation]\nwarp = 9\n"},
		{"drag target", "[simulation]\ndrag_alpha_target = 2.0\n"},
		{"cache backend", "[cache]\nbackend = \"memcached\"\n"},
		{"mongo without uri", "[source]\nkind = \"mongo\"\n"},
		{"source kind", "[source]\nkind = \"ftp\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Server.Addr = ":9090"
	cfg.Simulation.ChargeStrength = -200

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", loaded.Server.Addr)
	}
	if loaded.Simulation.ChargeStrength != -200 {
		t.Errorf("ChargeStrength = %v, want -200", loaded.Simulation.ChargeStrength)
	}
}
