package db_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchkit/internal/db"
	"branchkit/internal/errors"
	"branchkit/internal/testutil"
)

func TestNewAppliesMigrations(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.HealthCheck(ctx))

	v, err := database.GetSchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v.Version)
	assert.False(t, v.Dirty)

	var tables []string
	err = database.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('branch_history', 'settings') ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{"branch_history", "settings"}, tables)
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "branchkit.db")

	first, err := db.New(db.DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, db.NewSettingsRepository(first).Put(context.Background(), "k", "v"))
	require.NoError(t, first.Close())

	second, err := db.New(db.DefaultConfig(path))
	require.NoError(t, err)
	defer second.Close()

	value, found, err := db.NewSettingsRepository(second).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
	assert.Equal(t, path, second.Path())
}

func TestHistoryListRecentOrdering(t *testing.T) {
	database := testutil.SetupTestDB(t)
	repo := db.NewHistoryRepository(database)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.Append(ctx, &db.HistoryRecord{
			BranchName:  fmt.Sprintf("branch-%d", i),
			PatternJSON: "{}",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "branch-9", records[0].BranchName)
	assert.Equal(t, "branch-8", records[1].BranchName)
	assert.Equal(t, "branch-7", records[2].BranchName)
	assert.True(t, records[0].CreatedAt.Equal(base.Add(9*time.Minute)))
	assert.NotEmpty(t, records[0].ID)
}

func TestHistoryDefaultLimit(t *testing.T) {
	database := testutil.SetupTestDB(t)
	repo := db.NewHistoryRepository(database)
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		require.NoError(t, repo.Append(ctx, &db.HistoryRecord{BranchName: "b", PatternJSON: "{}"}))
	}

	records, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 50)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 55, count)
}

func TestHistoryEmpty(t *testing.T) {
	database := testutil.SetupTestDB(t)
	records, err := db.NewHistoryRepository(database).ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestHistoryConcurrentAppends(t *testing.T) {
	database := testutil.SetupTestDB(t)
	repo := db.NewHistoryRepository(database)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Append(ctx, &db.HistoryRecord{BranchName: fmt.Sprintf("b-%d", i), PatternJSON: "{}"})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestSettingsGetPut(t *testing.T) {
	database := testutil.SetupTestDB(t)
	repo := db.NewSettingsRepository(database)
	ctx := context.Background()

	_, found, err := repo.Get(ctx, db.SettingBranchConfig)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Put(ctx, db.SettingBranchConfig, `{"a":1}`))
	require.NoError(t, repo.Put(ctx, db.SettingBranchConfig, `{"a":2}`))

	value, found, err := repo.Get(ctx, db.SettingBranchConfig)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"a":2}`, value)
}

func TestTransactionRollback(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	err := database.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES ('x', 'y')`); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.EqualError(t, err, "abort")

	_, found, err := db.NewSettingsRepository(database).Get(ctx, "x")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewRejectsNonDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "branchkit.db")
	garbage := make([]byte, 4096)
	for i := range garbage {
		garbage[i] = 'x'
	}
	require.NoError(t, os.WriteFile(path, garbage, 0644))

	_, err := db.New(db.DefaultConfig(path))
	require.Error(t, err)

	code := errors.GetCode(err)
	assert.Contains(t, []errors.ErrorCode{errors.ErrDatabaseConnection, errors.ErrDatabaseMigration}, code)
}
