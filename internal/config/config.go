// ABOUTME: Server configuration loading and validation
// ABOUTME: Merges .env, optional TOML config file, and environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	// DefaultAPIBase is the public Zotero Web API endpoint.
	DefaultAPIBase = "https://api.zotero.org"

	defaultLogLevel = "info"
)

// Config holds everything the server needs to talk to a Zotero library.
// Environment variables override values from the config file.
type Config struct {
	APIKey   string `env:"ZOTERO_API_KEY" toml:"api_key"`
	UserID   string `env:"ZOTERO_USER_ID" toml:"user_id"`
	GroupID  string `env:"ZOTERO_GROUP_ID" toml:"group_id"`
	LogLevel string `env:"ZOTERO_LOG_LEVEL" toml:"log_level"`
	APIBase  string `env:"ZOTERO_API_BASE" toml:"api_base"`
}

// Load reads configuration in precedence order: a .env file in the working
// directory (if present), then the TOML config file, then real environment
// variables on top.
func Load() (*Config, error) {
	// Missing .env is fine, same as the usual dotenv behavior
	_ = godotenv.Load()

	cfg := &Config{}

	configPath := filepath.Join(GetConfigHome(), "zotero-mcp", "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}

	return cfg, nil
}

// Validate checks the credential set: an API key plus exactly one of the
// user or group library identifiers.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("ZOTERO_API_KEY is not set")
	}
	if c.UserID != "" && c.GroupID != "" {
		return errors.New("set only one of ZOTERO_USER_ID and ZOTERO_GROUP_ID")
	}
	if c.UserID == "" && c.GroupID == "" {
		return errors.New("either ZOTERO_USER_ID or ZOTERO_GROUP_ID must be set")
	}
	return nil
}

// LibraryType returns "users" or "groups" depending on which identifier is
// configured.
func (c *Config) LibraryType() string {
	if c.GroupID != "" {
		return "groups"
	}
	return "users"
}

// LibraryID returns the configured library identifier.
func (c *Config) LibraryID() string {
	if c.GroupID != "" {
		return c.GroupID
	}
	return c.UserID
}
