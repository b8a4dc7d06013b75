package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "plasma-dashboard"

// ErrSettingsUnavailable marks a settings file that exists but cannot be used
var ErrSettingsUnavailable = errors.New("settings unavailable")

// Settings are the user preferences persisted between runs
type Settings struct {
	Port           int    `json:"port,omitempty"`
	DataDir        string `json:"dataDir,omitempty"`
	StoreBackend   string `json:"storeBackend,omitempty"`
	DBDriver       string `json:"dbDriver,omitempty"`
	MemoryCapacity int    `json:"memoryCapacity,omitempty"`
}

// SettingsPath returns the settings file location inside the XDG config directory
func SettingsPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(appName, "settings.json"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve settings path: %w", err)
	}
	return path, nil
}

// DataStoreDir returns the default XDG data directory for prediction history
func DataStoreDir() (string, error) {
	dir := filepath.Join(xdg.DataHome, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// LoadSettings reads the saved settings. A missing file yields empty settings.
func LoadSettings() (*Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom reads settings from an explicit path
func LoadSettingsFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &s, nil
}

// SaveSettings writes settings to the XDG config directory
func SaveSettings(s *Settings) error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	return SaveSettingsTo(path, s)
}

// SaveSettingsTo writes settings to an explicit path
func SaveSettingsTo(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
