// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Application identity
const (
	// AppName is used for XDG directories, the keyring service and the binary name
	AppName = "branchkit"

	// KeyringService is the OS credential store service all credentials live under
	KeyringService = AppName

	// EnvPrefix prefixes every environment override
	EnvPrefix = "BRANCHKIT_"
)

// Environment overrides
const (
	EnvLogLevel = EnvPrefix + "LOG_LEVEL"
	EnvDBPath   = EnvPrefix + "DB_PATH"
	EnvConfig   = EnvPrefix + "CONFIG"
)

// Network and Port Constants
const (
	// DefaultServerPort is the default port for the branchkit API server
	DefaultServerPort = 8420

	// DefaultServerHost binds the API to loopback only
	DefaultServerHost = "127.0.0.1"

	// MinPortNumber is the minimum valid TCP port number
	MinPortNumber = 1

	// MaxPortNumber is the maximum valid TCP port number
	MaxPortNumber = 65535
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for branchkit directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for branchkit config files
	FilePermissions = 0644
)

// Database Configuration
const (
	// DefaultMaxOpenConnections is the default maximum number of database connections
	DefaultMaxOpenConnections = 25

	// DefaultMaxIdleConnections is the default maximum number of idle database connections
	DefaultMaxIdleConnections = 5

	// DefaultConnectionTimeout is the default database connection lifetime
	DefaultConnectionTimeout = 5 * time.Minute

	// DefaultIdleTimeout is the default database idle connection timeout
	DefaultIdleTimeout = 1 * time.Minute
)

// HTTP Configuration
const (
	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerShutdownTimeout = 30 * time.Second

	// DefaultServerWriteTimeout is long because clones run inside the request
	DefaultServerWriteTimeout = 10 * time.Minute
)

// Git and branch automation
const (
	// MaxAuthAttempts bounds the credential negotiation during clone
	MaxAuthAttempts = 3

	// DefaultInitialBranch is the branch name new repositories start on
	DefaultInitialBranch = "main"

	// DefaultSSHUser is used when a remote URL carries no username
	DefaultSSHUser = "git"

	// FallbackAuthorName and FallbackAuthorEmail sign commits when no identity is configured
	FallbackAuthorName  = AppName
	FallbackAuthorEmail = AppName + "@localhost"

	// DefaultHistoryLimit bounds branch history queries without an explicit limit
	DefaultHistoryLimit = 50

	// DefaultMaxConcurrentGitOps bounds concurrent blocking git work
	DefaultMaxConcurrentGitOps = 4
)

// Logging
const (
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 30
)
