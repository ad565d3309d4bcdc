// Package config loads and saves the application configuration as a
// TOML file under the user's config directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Version int        `toml:"version"`
	Backend string     `toml:"backend"`  // "sqlite" or "memory"
	DataDir string     `toml:"data_dir"` // directory holding the store database
	Author  string     `toml:"author"`   // default author for new entities
	UI      UISettings `toml:"ui"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowTrash     bool `toml:"show_trash"`
	ConfirmDelete bool `toml:"confirm_delete"`
}

// Service handles configuration management
type Service interface {
	Load() (*Config, error)
	Save(cfg *Config) error
	Path() string
}

type service struct {
	filePath string
}

// NewService creates a config service rooted at the XDG config dir
func NewService() Service {
	path, err := xdg.ConfigFile(filepath.Join("eventcat", "config.toml"))
	if err != nil {
		path = filepath.Join(".", "eventcat.toml")
	}
	return &service{filePath: path}
}

// NewServiceAt creates a config service using an explicit file path
func NewServiceAt(path string) Service {
	return &service{filePath: path}
}

// Path returns the config file location
func (s *service) Path() string { return s.filePath }

// Load reads the configuration, returning defaults when no file exists
func (s *service) Load() (*Config, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Backend != "sqlite" && cfg.Backend != "memory" {
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return cfg, nil
}

// Save writes the configuration, creating parent directories as needed
func (s *service) Save(cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	dataDir := filepath.Join(xdg.DataHome, "eventcat")
	return &Config{
		Version: 1,
		Backend: "sqlite",
		DataDir: dataDir,
		UI: UISettings{
			ShowTrash:     true,
			ConfirmDelete: true,
		},
	}
}

// DatabasePath returns the sqlite database location for this config
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "catalogues.db")
}
