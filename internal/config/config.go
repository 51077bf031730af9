// Package config loads the engine configuration from ~/.grove/config.toml.
// A missing file is not an error; defaults apply and the file is optional.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
)

// Config is the full engine configuration.
type Config struct {
	User    UserConfig    `toml:"user"`
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// UserConfig identifies the local user.
type UserConfig struct {
	ID string `toml:"id"`
}

// APIConfig configures the local HTTP surface.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// StorageConfig selects and locates the KV backend.
type StorageConfig struct {
	// Backend is "sqlite", "bolt" or "diskv".
	Backend string `toml:"backend"`
	// Dir is the data directory. Empty means ~/.grove.
	Dir string `toml:"dir"`
	// FlushMillis overrides the write-coalescing window.
	FlushMillis int `toml:"flush_millis"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"`
}

// DefaultConfig returns the out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		User: UserConfig{ID: "local"},
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    7420,
			Metrics: true,
		},
		Storage: StorageConfig{
			Backend:     "sqlite",
			FlushMillis: 100,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// DefaultPath returns ~/.grove/config.toml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".grove", "config.toml"), nil
}

// Load reads the config file at path, layering it over the defaults and then
// applying environment overrides. An absent file yields pure defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv layers GROVE_* environment variables over the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("GROVE_USER_ID"); v != "" {
		cfg.User.ID = v
	}
	if v := os.Getenv("GROVE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GROVE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("GROVE_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("GROVE_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("GROVE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "sqlite", "bolt", "diskv":
	default:
		return fmt.Errorf("storage.backend must be sqlite, bolt or diskv, got %q", c.Storage.Backend)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	return nil
}

// DataDir resolves the storage directory, creating it if needed.
func (c Config) DataDir() (string, error) {
	dir := c.Storage.Dir
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".grove")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return dir, nil
}

// StorePath returns the path handed to the KV backend: a file for sqlite and
// bolt, a directory for diskv.
func (c Config) StorePath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	switch c.Storage.Backend {
	case "sqlite":
		return filepath.Join(dir, "grove.db"), nil
	case "bolt":
		return filepath.Join(dir, "grove.bolt"), nil
	default:
		return filepath.Join(dir, "store"), nil
	}
}

// ListenAddr returns the host:port the API binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}
