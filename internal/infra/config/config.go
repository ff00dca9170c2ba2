// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/loom-sh/loom/internal/domain"
)

// Config is the loom configuration, loaded from ~/.loom/config.toml.
// Missing file and missing keys fall back to defaults.
type Config struct {
	HomeDir string        `toml:"home_dir"` // root of managed state (default ~/.loom)
	Storage StorageConfig `toml:"storage"`
	Import  ImportConfig  `toml:"import"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig configures the sqlite database location.
type StorageConfig struct {
	Path string `toml:"path"` // default <home_dir>/loom.db
}

// ImportConfig configures transcript import.
type ImportConfig struct {
	BatchSize int `toml:"batch_size"` // bulk-write batch size (default 100)
}

// LogConfig configures the file logger.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error (default info)
	Dir   string `toml:"dir"`   // default <home_dir>/logs
}

// DefaultBatchSize is the import bulk-write batch size when unconfigured.
const DefaultBatchSize = 100

// Default returns the configuration used when no file exists.
func Default(homeDir string) *Config {
	cfg := &Config{HomeDir: homeDir}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.HomeDir == "" {
		c.HomeDir = defaultHomeDir()
	}
	if c.Storage.Path == "" {
		c.Storage.Path = domain.DBPath(c.HomeDir)
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = DefaultBatchSize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = domain.LogsDir(c.HomeDir)
	}
}

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loom"
	}
	return filepath.Join(home, ".loom")
}

// Load reads the config file under homeDir (empty selects ~/.loom). A
// missing file yields the defaults; a malformed file is an error rather
// than a silent fallback.
func Load(homeDir string) (*Config, error) {
	cfg := &Config{HomeDir: homeDir}
	if cfg.HomeDir == "" {
		cfg.HomeDir = defaultHomeDir()
	}

	path := domain.ConfigPath(cfg.HomeDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}
