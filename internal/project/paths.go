// Package project persists load plans, fleet catalogs and custom scenario
// profiles.
package project

import (
	"os"
	"path/filepath"
)

// DefaultConfigDir returns the default directory for application data.
// On all platforms this is ~/.ductload/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".ductload")
}

// DefaultConfigPath returns the config file the CLI reads when --config is
// not given and the file exists.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultFleetPath returns the default fleet catalog location.
func DefaultFleetPath() string {
	return filepath.Join(DefaultConfigDir(), "fleet.yaml")
}

// DefaultScenariosPath returns the default custom scenario profile location.
func DefaultScenariosPath() string {
	return filepath.Join(DefaultConfigDir(), "scenarios.yaml")
}

// writeFile creates any missing parent directories, then writes data.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
