package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"branchkit/internal/constants"
)

// HistoryRepository handles database operations for the branch history log
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts rec as a new entry, assigning an ID when it has none.
// Entries are never updated or removed.
func (r *HistoryRepository) Append(ctx context.Context, rec *HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	query := `
		INSERT INTO branch_history (id, branch_name, pattern_json, created_at)
		VALUES (:id, :branch_name, :pattern_json, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to append branch history: %w", err)
	}
	return nil
}

// ListRecent returns at most limit entries, newest first. A non-positive
// limit uses the default.
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}

	query := `
		SELECT id, branch_name, pattern_json, created_at
		FROM branch_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	records := []HistoryRecord{}
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query branch history: %w", err)
	}
	return records, nil
}

// Count returns the number of history entries
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM branch_history`); err != nil {
		return 0, fmt.Errorf("failed to count branch history: %w", err)
	}
	return count, nil
}
