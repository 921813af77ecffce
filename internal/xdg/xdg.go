// Package xdg provides XDG Base Directory Specification compliant paths
package xdg

import (
	"os"
	"path/filepath"

	"branchkit/internal/constants"
)

func resolve(envVar string, fallback ...string) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, constants.AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{homeDir}, fallback...)
	return filepath.Join(append(parts, constants.AppName)...), nil
}

// ConfigDir returns the XDG config directory for branchkit
// Priority: XDG_CONFIG_HOME > ~/.config/branchkit
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for branchkit
// Priority: XDG_DATA_HOME > ~/.local/share/branchkit
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", ".local", "share")
}

// StateDir returns the XDG state directory for branchkit
// Priority: XDG_STATE_HOME > ~/.local/state/branchkit
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", ".local", "state")
}

// LogsDir returns the directory for storing log files
func LogsDir() string {
	stateDir, err := StateDir()
	if err != nil {
		dataDir, _ := DataDir()
		return filepath.Join(dataDir, "logs")
	}
	return filepath.Join(stateDir, "logs")
}

// SSHDir returns the conventional per-user SSH directory (~/.ssh).
func SSHDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ssh"), nil
}
