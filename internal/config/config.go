package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// SQLite drivers registered by the store package
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "PLASMA_DASHBOARD_"

// Config holds the application configuration
type Config struct {
	Port           int
	DataDir        string
	StoreBackend   string
	DBDriver       string
	MemoryCapacity int
	Version        string
}

// Default returns the configuration used when nothing else is set
func Default() Config {
	return Config{
		Port:           8080,
		DataDir:        "./data",
		StoreBackend:   BackendMemory,
		DBDriver:       DriverModernc,
		MemoryCapacity: 500,
		Version:        "dev",
	}
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.StoreBackend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file or sqlite)", c.StoreBackend)
	}
	if c.StoreBackend == BackendSQLite && c.DBDriver != DriverMattn && c.DBDriver != DriverModernc {
		return fmt.Errorf("unknown database driver %q (want sqlite3 or sqlite)", c.DBDriver)
	}
	if c.StoreBackend == BackendMemory && c.MemoryCapacity <= 0 {
		return fmt.Errorf("memory capacity must be positive, got %d", c.MemoryCapacity)
	}
	if c.StoreBackend != BackendMemory && c.DataDir == "" {
		return fmt.Errorf("data directory is required for the %s backend", c.StoreBackend)
	}
	return nil
}

// ApplySettings overlays non-empty saved settings
func (c *Config) ApplySettings(s *Settings) {
	if s == nil {
		return
	}
	if s.Port != 0 {
		c.Port = s.Port
	}
	if s.DataDir != "" {
		c.DataDir = s.DataDir
	}
	if s.StoreBackend != "" {
		c.StoreBackend = s.StoreBackend
	}
	if s.DBDriver != "" {
		c.DBDriver = s.DBDriver
	}
	if s.MemoryCapacity != 0 {
		c.MemoryCapacity = s.MemoryCapacity
	}
}

// ApplyEnv overlays PLASMA_DASHBOARD_* variables read through getenv.
// A nil getenv uses os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sPORT: %w", EnvPrefix, err)
		}
		c.Port = port
	}
	if v := getenv(EnvPrefix + "DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv(EnvPrefix + "STORE"); v != "" {
		c.StoreBackend = v
	}
	if v := getenv(EnvPrefix + "DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := getenv(EnvPrefix + "MEMORY_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sMEMORY_CAPACITY: %w", EnvPrefix, err)
		}
		c.MemoryCapacity = n
	}
	return nil
}

// Resolve builds a configuration from defaults, saved settings and the environment.
// Settings that cannot be read are reported but do not stop resolution.
func Resolve(getenv func(string) string) (Config, error) {
	cfg := Default()

	settings, err := LoadSettings()
	if err == nil {
		cfg.ApplySettings(settings)
	}
	if envErr := cfg.ApplyEnv(getenv); envErr != nil {
		return cfg, envErr
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrSettingsUnavailable, err)
	}
	return cfg, nil
}

// PredictionsDir is where the file backend keeps one JSON document per prediction
func (c Config) PredictionsDir() string {
	return filepath.Join(c.DataDir, "predictions")
}

// DatabasePath is the SQLite database file for the sqlite backend
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "predictions.db")
}
