// Package config loads the dvpick configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the dvpick configuration.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Picker PickerConfig `yaml:"picker"`
	Cache  CacheConfig  `yaml:"cache"`
}

// APIConfig holds Web API connection settings.
type APIConfig struct {
	BaseURL     string `yaml:"base_url"`     // e.g. https://org.crm.dynamics.com/api/data/v9.2/
	Cookie      string `yaml:"cookie"`       // raw Cookie header for session auth
	BearerToken string `yaml:"bearer_token"` // alternative to cookie auth
	TimeoutMs   int    `yaml:"timeout_ms"`   // per-request timeout
}

// PickerConfig holds TUI behavior settings.
type PickerConfig struct {
	DebounceMs   int `yaml:"debounce_ms"`    // quiet period before a search fires
	PageSize     int `yaml:"page_size"`      // fixed $top, no continuation
	CloseDelayMs int `yaml:"close_delay_ms"` // dropdown grace window after blur
}

// CacheConfig holds the metadata cache settings.
type CacheConfig struct {
	Path     string `yaml:"path"`      // metadata.db location (empty = default)
	TTLHours int    `yaml:"ttl_hours"` // descriptor lifetime
	Disabled bool   `yaml:"disabled"`  // skip the persistent cache entirely
}

// Defaults applied to unset fields.
const (
	defaultTimeoutMs    = 15000
	defaultDebounceMs   = 300
	defaultPageSize     = 20
	defaultCloseDelayMs = 150
	defaultTTLHours     = 24
)

// DefaultPath returns the config file path, honoring DVPICK_CONFIG.
func DefaultPath() (string, error) {
	if p := os.Getenv("DVPICK_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, "dvpick", "config.yaml"), nil
}

// Load reads the config file, applying defaults. A missing file is not an
// error: everything can be supplied via flags.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.TimeoutMs <= 0 {
		c.API.TimeoutMs = defaultTimeoutMs
	}
	if c.Picker.DebounceMs <= 0 {
		c.Picker.DebounceMs = defaultDebounceMs
	}
	if c.Picker.PageSize <= 0 {
		c.Picker.PageSize = defaultPageSize
	}
	if c.Picker.CloseDelayMs <= 0 {
		c.Picker.CloseDelayMs = defaultCloseDelayMs
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = defaultTTLHours
	}
	if c.API.BaseURL != "" && !strings.HasSuffix(c.API.BaseURL, "/") {
		c.API.BaseURL += "/"
	}
}

func (c *Config) validate() error {
	if c.API.BaseURL != "" &&
		!strings.HasPrefix(c.API.BaseURL, "https://") &&
		!strings.HasPrefix(c.API.BaseURL, "http://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	return nil
}
