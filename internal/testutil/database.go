package testutil

import (
	"path/filepath"
	"testing"

	"branchkit/internal/db"
)

// SetupTestDB opens a migrated SQLite database in a temp directory
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	cfg := db.DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	database, err := db.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
