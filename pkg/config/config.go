// Package config loads tasklist settings from a TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	xdgAppName = "tasklist"
	configFile = "config.toml"

	DefaultCalendar       = "Tasks"
	DefaultTimeoutSeconds = 10
	DefaultRefreshSeconds = 30
	DefaultLogLevel       = "info"
)

type Config struct {
	APIBaseURL     string `toml:"api_base_url,omitempty"`
	APIKey         string `toml:"api_key,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
	RefreshSeconds int    `toml:"refresh_seconds,omitempty"`
	Strict         bool   `toml:"strict,omitempty"`
	SchemaFile     string `toml:"schema_file,omitempty"`
	LogLevel       string `toml:"log_level,omitempty"`
	Calendar       string `toml:"calendar,omitempty"`

	// Path the config was loaded from (computed)
	Path string `toml:"-"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.RefreshSeconds <= 0 {
		cfg.RefreshSeconds = DefaultRefreshSeconds
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Calendar == "" {
		cfg.Calendar = DefaultCalendar
	}
}

// Timeout is the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RefreshInterval is how often the terminal UI re-sorts against the clock.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// Validate checks the settings needed to talk to the task API.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api base url is not set (api_base_url or TASKLIST_API_BASE_URL)")
	}
	return nil
}

// Dir returns the tasklist config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// GetConfigPath returns TASKLIST_CONFIG when set, otherwise the default path.
func GetConfigPath() (string, error) {
	if v := os.Getenv("TASKLIST_CONFIG"); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file (if any) at the default path and applies
// environment overrides.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	loadFromEnv(cfg)
	setDefaults(cfg)
	return cfg, nil
}

// readFile decodes only what the file at path holds, without environment
// overrides or defaults.
func readFile(path string) (*Config, error) {
	cfg := &Config{Path: path}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return cfg, nil
}

// SetCalendar changes the calendar name stored in the config file and
// returns the file's path. Other keys keep their file values.
func SetCalendar(name string) (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	cfg, err := readFile(path)
	if err != nil {
		return "", err
	}
	cfg.Calendar = name
	if err := Save(cfg); err != nil {
		return "", err
	}
	return path, nil
}

// loadFromEnv overrides config from environment variables. The VITE_ names
// are read for compatibility with the web client's .env files.
func loadFromEnv(cfg *Config) {
	if v := firstEnv("TASKLIST_API_BASE_URL", "VITE_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := firstEnv("TASKLIST_API_KEY", "VITE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("TASKLIST_TIMEOUT_SECONDS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = i
		}
	}
	if v := os.Getenv("TASKLIST_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strict = b
		}
	}
	if v := os.Getenv("TASKLIST_SCHEMA"); v != "" {
		cfg.SchemaFile = v
	}
	if v := os.Getenv("TASKLIST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKLIST_CALENDAR"); v != "" {
		cfg.Calendar = v
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Save writes cfg to its Path, or to the default path when Path is empty.
// Every set field is written, so callers pass file values, not a config
// returned by Load.
func Save(cfg *Config) error {
	path := cfg.Path
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
