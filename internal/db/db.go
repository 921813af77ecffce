// Package db provides the SQLite store behind branch history and settings
package db

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"branchkit/internal/constants"
	"branchkit/internal/errors"
	"branchkit/internal/xdg"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const driverName = "sqlite3"

// Config represents database configuration
type Config struct {
	// Path is the SQLite database file
	Path string
	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int
	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int
	// ConnMaxLifetime is the maximum lifetime of a connection
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum idle time of a connection
	ConnMaxIdleTime time.Duration
}

// DefaultPath returns the XDG-compliant database path
func DefaultPath() string {
	dataDir, err := xdg.DataDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "share", constants.AppName, constants.AppName+".db")
	}
	return filepath.Join(dataDir, constants.AppName+".db")
}

// DefaultConfig returns a default SQLite configuration at path, or at the
// XDG data directory when path is empty.
func DefaultConfig(path string) *Config {
	if path == "" {
		path = DefaultPath()
	}
	return &Config{
		Path:            path,
		MaxOpenConns:    constants.DefaultMaxOpenConnections,
		MaxIdleConns:    constants.DefaultMaxIdleConnections,
		ConnMaxLifetime: constants.DefaultConnectionTimeout,
		ConnMaxIdleTime: constants.DefaultIdleTimeout,
	}
}

// DB wraps sqlx.DB with additional functionality
type DB struct {
	*sqlx.DB
	config *Config
}

// New opens the database and applies pending migrations.
func New(cfg *Config) (*DB, error) {
	if cfg == nil {
		cfg = DefaultConfig("")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), constants.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// busy_timeout lets concurrent history appends wait on the write lock
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", cfg.Path)
	sqlxDB, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, errors.DatabaseConnectionError(fmt.Errorf("failed to open database: %w", err))
	}

	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlxDB.PingContext(ctx); err != nil {
		sqlxDB.Close()
		return nil, errors.DatabaseConnectionError(fmt.Errorf("failed to ping database: %w", err))
	}

	db := &DB{DB: sqlxDB, config: cfg}
	if err := db.Migrate(); err != nil {
		sqlxDB.Close()
		return nil, errors.DatabaseMigrationError(err)
	}
	return db, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbInstance, err := sqlite3.WithInstance(db.DB.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite3 driver instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driverName, dbInstance)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Path returns the database file location
func (db *DB) Path() string {
	if db.config == nil {
		return ""
	}
	return db.config.Path
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Transaction executes a function within a transaction
func (db *DB) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %v, unable to rollback: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	if err := db.GetContext(ctx, &result, "SELECT 1"); err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}

	return nil
}

// Stats returns database statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}
