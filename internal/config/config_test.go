package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if cfg.ServerURL == "" {
		t.Error("default config has no server_url")
	}
	if len(cfg.Channels) == 0 {
		t.Error("default config has no channels")
	}
	if err := validate(cfg); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL == "" {
		t.Error("expected defaults, got empty server_url")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults not written to %s: %v", path, err)
	}
}

func TestLoadUserConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server_url: "http://dash.local:9000"
poll_interval: "500ms"
webhook_url: "https://hooks.example.com/video"
channels:
  - name: "Test"
    url: "https://www.youtube.com/@test"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "http://dash.local:9000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.PollDuration() != 500*time.Millisecond {
		t.Errorf("PollDuration = %v, want 500ms", cfg.PollDuration())
	}
	if cfg.WebhookURL != "https://hooks.example.com/video" {
		t.Errorf("WebhookURL = %q", cfg.WebhookURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		err  bool
	}{
		{"ok", Config{ServerURL: "http://localhost:8000"}, false},
		{"missing server", Config{}, true},
		{"bad scheme", Config{ServerURL: "ftp://x"}, true},
		{"channel without url", Config{ServerURL: "http://x", Channels: []Channel{{Name: "a"}}}, true},
	}
	for _, tt := range tests {
		err := validate(&tt.cfg)
		if tt.err && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
		if !tt.err && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}

func TestDurationDefaults(t *testing.T) {
	var cfg Config
	if got := cfg.PollDuration(); got != 2*time.Second {
		t.Errorf("PollDuration default = %v, want 2s", got)
	}
	if got := cfg.TimeoutDuration(); got != 30*time.Second {
		t.Errorf("TimeoutDuration default = %v, want 30s", got)
	}
	if got := cfg.Schedule(); got != "@every 4h" {
		t.Errorf("Schedule default = %q", got)
	}
}
