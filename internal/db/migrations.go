package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SchemaVersion reports the applied migration version and whether the last
// migration left the schema dirty.
type SchemaVersion struct {
	Version uint `json:"version" db:"version"`
	Dirty   bool `json:"dirty" db:"dirty"`
}

// GetSchemaVersion returns the current migration version
func (db *DB) GetSchemaVersion(ctx context.Context) (SchemaVersion, error) {
	var v SchemaVersion
	query := `SELECT version, dirty FROM schema_migrations LIMIT 1`

	if err := db.GetContext(ctx, &v, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SchemaVersion{}, nil
		}
		return SchemaVersion{}, fmt.Errorf("failed to get current version: %w", err)
	}

	return v, nil
}
