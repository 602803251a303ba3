// Package config loads monitor settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the monitor settings.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	RegistryInterval time.Duration `yaml:"registry_interval"`
	TailInterval     time.Duration `yaml:"tail_interval"`
	AutoRefresh      bool          `yaml:"auto_refresh"`
	FontSize         string        `yaml:"font_size"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	NotificationTTL  time.Duration `yaml:"notification_ttl"`
	LogFile          string        `yaml:"log_file"`
	LogMode          string        `yaml:"log_mode"`
	ExportDir        string        `yaml:"export_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:          "http://localhost:8000/api",
		RegistryInterval: 5 * time.Second,
		TailInterval:     2 * time.Second,
		AutoRefresh:      true,
		FontSize:         "md",
		NotificationTTL:  5 * time.Second,
		LogFile:          filepath.Join(stateDir(), "jobwatch.log"),
		LogMode:          "dev",
		ExportDir:        filepath.Join(stateDir(), "exports"),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "jobwatch", "config.yaml")
}

func stateDir() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "jobwatch")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from JOBWATCH_* variables. Unparseable values
// are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("JOBWATCH_BASE_URL")); v != "" {
		c.BaseURL = v
	}
	if d, ok := envDuration(getenv, "JOBWATCH_REGISTRY_INTERVAL"); ok {
		c.RegistryInterval = d
	}
	if d, ok := envDuration(getenv, "JOBWATCH_TAIL_INTERVAL"); ok {
		c.TailInterval = d
	}
	if d, ok := envDuration(getenv, "JOBWATCH_REQUEST_TIMEOUT"); ok {
		c.RequestTimeout = d
	}
	if v := strings.TrimSpace(getenv("JOBWATCH_AUTO_REFRESH")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AutoRefresh = b
		}
	}
	if v := strings.TrimSpace(getenv("JOBWATCH_LOG_FILE")); v != "" {
		c.LogFile = v
	}
	if v := strings.TrimSpace(getenv("JOBWATCH_LOG_MODE")); v != "" {
		c.LogMode = v
	}
}

func envDuration(getenv func(string) string, name string) (time.Duration, bool) {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Validate checks settings the monitor cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url %q must be an http(s) URL", c.BaseURL)
	}
	if c.RegistryInterval <= 0 {
		return fmt.Errorf("registry_interval must be positive, got %s", c.RegistryInterval)
	}
	if c.TailInterval <= 0 {
		return fmt.Errorf("tail_interval must be positive, got %s", c.TailInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	return nil
}
