package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.threadchat/config.toml.
type Config struct {
	// ServerURL is the base URL of the chat service, e.g. "https://chat.example.com".
	ServerURL string `toml:"server_url"`
	// Token is the bearer token used for both REST and WebSocket auth.
	Token string `toml:"token"`
	// UserID is the authenticated user's server-assigned id.
	UserID string `toml:"user_id"`
	// Username is the authenticated user's handle.
	Username string `toml:"username"`
	// DefaultProfile selects the profile dir when --profile is not given.
	DefaultProfile string `toml:"default_profile"`
	// CacheMaxAgeMinutes bounds how long cached profile lookups are reused.
	// Zero disables the on-disk cache.
	CacheMaxAgeMinutes int `toml:"cache_max_age_minutes"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields required to talk to the service.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server_url %q must start with http:// or https://", c.ServerURL)
	}
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
