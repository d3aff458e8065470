// Package xdg provides XDG Base Directory support for octscan.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "octscan"

// ConfigHome returns the XDG config home directory.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigHome() string {
	return fromEnv("XDG_CONFIG_HOME", ".config")
}

// DataHome returns the XDG data home directory.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataHome() string {
	return fromEnv("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateHome returns the XDG state home directory.
// Uses $XDG_STATE_HOME if set, otherwise ~/.local/state.
func StateHome() string {
	return fromEnv("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// ConfigDir returns the octscan config directory: ConfigHome()/octscan.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), appName)
}

// DataDir returns the octscan data directory: DataHome()/octscan.
// Installed models live under DataDir()/models.
func DataDir() string {
	return filepath.Join(DataHome(), appName)
}

// StateDir returns the octscan state directory: StateHome()/octscan.
// Prediction logs live under StateDir()/logs.
func StateDir() string {
	return filepath.Join(StateHome(), appName)
}

func fromEnv(key, fallback string) string {
	if dir := os.Getenv(key); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fallback)
}
