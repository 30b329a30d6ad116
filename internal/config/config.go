package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Channel is one monitored YouTube channel. URL may be a handle URL
// (https://www.youtube.com/@Handle), a /channel/ URL, or a bare UC... id.
type Channel struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	ServerURL      string    `yaml:"server_url"`
	PollInterval   string    `yaml:"poll_interval,omitempty"`
	RequestTimeout string    `yaml:"request_timeout,omitempty"`
	WebhookURL     string    `yaml:"webhook_url,omitempty"`
	WatchSchedule  string    `yaml:"watch_schedule,omitempty"`
	Channels       []Channel `yaml:"channels"`
}

func (c *Config) PollDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Schedule returns the watch cron spec, defaulting to every four hours
// to match the server's own background cadence.
func (c *Config) Schedule() string {
	if c.WatchSchedule == "" {
		return "@every 4h"
	}
	return c.WatchSchedule
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "tubedash", "config.yaml")
}

// SeenDBPath is where the watch command records already-notified videos.
func SeenDBPath() string {
	return filepath.Join(xdg.StateHome, "tubedash", "seen.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url scheme must be http or https, got %q", u.Scheme)
	}

	for i, ch := range cfg.Channels {
		if ch.URL == "" {
			return fmt.Errorf("channel %d: url is required", i)
		}
	}
	return nil
}
