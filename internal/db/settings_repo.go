package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SettingsRepository stores named configuration blobs
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under key. found is false when the key has
// never been written.
func (r *SettingsRepository) Get(ctx context.Context, key string) (value string, found bool, err error) {
	query := `SELECT value FROM settings WHERE key = ?`

	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Put creates or replaces the value stored under key
func (r *SettingsRepository) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}
