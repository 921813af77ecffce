// Package config loads and saves the global branchkit configuration
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"branchkit/internal/branch"
	"branchkit/internal/constants"
	"branchkit/internal/errors"
	"branchkit/internal/xdg"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the file the global configuration lives in
const ConfigFileName = "config.toml"

// GlobalConfig represents the global branchkit configuration
type GlobalConfig struct {
	Server  ServerConfig  `toml:"server" json:"server" yaml:"server"`
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`
	Git     GitConfig     `toml:"git" json:"git" yaml:"git"`
	Branch  branch.Config `toml:"branch" json:"branch" yaml:"branch"`
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	Workers WorkersConfig `toml:"workers" json:"workers" yaml:"workers"`
}

type ServerConfig struct {
	Port int    `toml:"port" json:"port" yaml:"port"` // API port (default 8420)
	Host string `toml:"host" json:"host" yaml:"host"` // Bind address (default 127.0.0.1)
}

type StorageConfig struct {
	DatabasePath string `toml:"database_path" json:"database_path" yaml:"database_path"` // SQLite file; empty means the XDG data dir
}

type GitConfig struct {
	SSHDir string `toml:"ssh_dir" json:"ssh_dir" yaml:"ssh_dir"`
	// InsecureSkipHostKeyCheck disables SSH host key and TLS certificate
	// verification during clone.
	InsecureSkipHostKeyCheck bool   `toml:"insecure_skip_host_key_check" json:"insecure_skip_host_key_check" yaml:"insecure_skip_host_key_check"`
	FallbackAuthorName       string `toml:"fallback_author_name" json:"fallback_author_name" yaml:"fallback_author_name"`
	FallbackAuthorEmail      string `toml:"fallback_author_email" json:"fallback_author_email" yaml:"fallback_author_email"`
}

type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	File       string `toml:"file" json:"file" yaml:"file"` // Rotated log file; empty logs to stderr only
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
}

type WorkersConfig struct {
	MaxConcurrent int `toml:"max_concurrent" json:"max_concurrent" yaml:"max_concurrent"`
}

// DefaultGlobalConfig returns the default global configuration
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Server: ServerConfig{
			Port: constants.DefaultServerPort,
			Host: constants.DefaultServerHost,
		},
		Git: GitConfig{
			SSHDir:                   "~/.ssh",
			InsecureSkipHostKeyCheck: true,
			FallbackAuthorName:       constants.FallbackAuthorName,
			FallbackAuthorEmail:      constants.FallbackAuthorEmail,
		},
		Branch: branch.DefaultConfig(),
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  constants.DefaultLogMaxSizeMB,
			MaxBackups: constants.DefaultLogMaxBackups,
			MaxAgeDays: constants.DefaultLogMaxAgeDays,
		},
		Workers: WorkersConfig{
			MaxConcurrent: constants.DefaultMaxConcurrentGitOps,
		},
	}
}

// Path returns the config file location. BRANCHKIT_CONFIG overrides the
// XDG default.
func Path() (string, error) {
	if p := os.Getenv(constants.EnvConfig); p != "" {
		return p, nil
	}
	configDir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// Load reads the global configuration, returning defaults when no file
// exists. Environment overrides are applied last.
func Load() (*GlobalConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration at path
func LoadFrom(path string) (*GlobalConfig, error) {
	config := DefaultGlobalConfig()

	data, err := os.ReadFile(path)
	switch {
	case stderrors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		// Decoding onto the defaults keeps every key the file leaves out,
		// except lists, which must be replaced rather than merged.
		config.Branch.AllowedFeatureTypes = nil
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, errors.ConfigParseError(fmt.Errorf("failed to parse config %s: %w", path, err)).WithContext("path", path)
		}
		if config.Branch.AllowedFeatureTypes == nil {
			config.Branch.AllowedFeatureTypes = branch.AllFeatureTypes()
		}
	}

	applyEnv(config)
	if err := expandPaths(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration to the default location
func (g *GlobalConfig) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return g.SaveTo(path)
}

// SaveTo writes the configuration to path
func (g *GlobalConfig) SaveTo(path string) error {
	data, err := toml.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, constants.FilePermissions)
}

// Validate validates the global configuration
func (g *GlobalConfig) Validate() error {
	if g.Server.Port < constants.MinPortNumber || g.Server.Port > constants.MaxPortNumber {
		return fmt.Errorf("invalid port: %d", g.Server.Port)
	}
	if strings.TrimSpace(g.Server.Host) == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if g.Workers.MaxConcurrent <= 0 {
		return fmt.Errorf("workers.max_concurrent must be positive, got %d", g.Workers.MaxConcurrent)
	}
	if g.Logging.MaxSizeMB < 0 || g.Logging.MaxBackups < 0 || g.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation limits cannot be negative")
	}
	if err := g.Branch.Validate(); err != nil {
		return err
	}
	return nil
}

func applyEnv(config *GlobalConfig) {
	if level := os.Getenv(constants.EnvLogLevel); level != "" {
		config.Logging.Level = level
	}
	if path := os.Getenv(constants.EnvDBPath); path != "" {
		config.Storage.DatabasePath = path
	}
}

// expandPaths expands tilde paths in the configuration
func expandPaths(config *GlobalConfig) error {
	for _, p := range []*string{&config.Storage.DatabasePath, &config.Git.SSHDir, &config.Logging.File} {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
