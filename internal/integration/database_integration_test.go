//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"branchkit/internal/branch"
	"branchkit/internal/db"
	"branchkit/internal/git"
	"branchkit/internal/service"
	"branchkit/internal/sysinfo"
	"branchkit/internal/testutil"
	"branchkit/internal/worker"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
)

// DatabaseIntegrationTestSuite exercises history and settings persistence
// through the service
type DatabaseIntegrationTestSuite struct {
	suite.Suite
	testDir  string
	dbPath   string
	db       *db.DB
	history  *db.HistoryRepository
	settings *db.SettingsRepository
}

func (s *DatabaseIntegrationTestSuite) SetupSuite() {
	testDir, err := os.MkdirTemp("", "branchkit-db-integration-*")
	s.Require().NoError(err)
	s.testDir = testDir
}

func (s *DatabaseIntegrationTestSuite) TearDownSuite() {
	if s.testDir != "" {
		os.RemoveAll(s.testDir)
	}
}

func (s *DatabaseIntegrationTestSuite) SetupTest() {
	s.dbPath = filepath.Join(s.testDir, s.T().Name()+".db")
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.dbPath), 0755))

	database, err := db.New(db.DefaultConfig(s.dbPath))
	s.Require().NoError(err)
	s.db = database
	s.history = db.NewHistoryRepository(database)
	s.settings = db.NewSettingsRepository(database)
}

func (s *DatabaseIntegrationTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
}

func (s *DatabaseIntegrationTestSuite) newService(pool *worker.Pool, defaults branch.Config) *service.Service {
	svc, err := service.New(context.Background(), service.Options{
		Driver:   git.NewDriver(git.DefaultOptions()),
		History:  s.history,
		Settings: s.settings,
		Pool:     pool,
		System:   sysinfo.Info{Username: "jane", MachineName: "laptop", OSType: "linux"},
		Defaults: defaults,
	})
	s.Require().NoError(err)
	return svc
}

func (s *DatabaseIntegrationTestSuite) TestDatabaseCreationAndMigration() {
	ctx := context.Background()
	s.FileExists(s.dbPath)
	s.NoError(s.db.HealthCheck(ctx))

	version, err := s.db.GetSchemaVersion(ctx)
	s.Require().NoError(err)
	s.False(version.Dirty)
	s.NotZero(version.Version)

	// Running migrations again is a no-op
	s.NoError(s.db.Migrate())
	again, err := s.db.GetSchemaVersion(ctx)
	s.Require().NoError(err)
	s.Equal(version, again)
}

func (s *DatabaseIntegrationTestSuite) TestConcurrentBranchCreation() {
	ctx := context.Background()
	svc := s.newService(worker.NewPool(&worker.PoolConfig{MaxConcurrent: 2}), branch.DefaultConfig())

	const workspaces = 8
	repos := make([]string, workspaces)
	for i := range repos {
		repos[i] = testutil.InitRepo(s.T())
		testutil.CommitFile(s.T(), repos[i], "README.md", "# Shop\n", "Initial commit")
	}

	var wg sync.WaitGroup
	results := make([]service.CreateResult, workspaces)
	errs := make([]error, workspaces)
	for i := 0; i < workspaces; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ft := branch.Feature
			results[i], errs[i] = svc.CreateBranch(ctx, repos[i], service.CreateBranchRequest{
				Pattern: svc.SuggestBranchPattern(fmt.Sprintf("shop-%d", i), &ft),
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < workspaces; i++ {
		s.Require().NoError(errs[i])
		s.True(results[i].Created, results[i].Message)
		s.Equal(fmt.Sprintf("shop-%d/jane-laptop/feature", i), results[i].BranchName)
	}

	count, err := s.history.Count(ctx)
	s.Require().NoError(err)
	s.Equal(workspaces, count)

	entries, err := svc.GetBranchHistory(ctx, 3)
	s.Require().NoError(err)
	s.Len(entries, 3)
}

func (s *DatabaseIntegrationTestSuite) TestHistoryKeepsFullPattern() {
	ctx := context.Background()
	svc := s.newService(nil, branch.DefaultConfig())
	repo := testutil.InitRepo(s.T())
	testutil.CommitFile(s.T(), repo, "README.md", "# Shop\n", "Initial commit")

	desc := "Checkout Flow v2"
	ft := branch.Refactor
	p := svc.SuggestBranchPattern("shop", &ft)
	p.Description = &desc

	result, err := svc.CreateBranch(ctx, repo, service.CreateBranchRequest{Pattern: p})
	s.Require().NoError(err)
	s.Equal("shop/jane-laptop/refactor-checkout-flow-v2", result.BranchName)

	entries, err := svc.GetBranchHistory(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(p, entries[0].Pattern)
	s.False(entries[0].CreatedAt.IsZero())
}

func (s *DatabaseIntegrationTestSuite) TestUndecodableHistoryIsSkipped() {
	ctx := context.Background()
	s.Require().NoError(s.history.Append(ctx, &db.HistoryRecord{BranchName: "broken", PatternJSON: "{"}))
	s.Require().NoError(s.history.Append(ctx, &db.HistoryRecord{BranchName: "shop/jane-laptop/docs", PatternJSON: `{"workspace":"shop","feature_type":"docs"}`}))

	svc := s.newService(nil, branch.DefaultConfig())
	entries, err := svc.GetBranchHistory(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(branch.Documentation, entries[0].Pattern.FeatureType)
}

func (s *DatabaseIntegrationTestSuite) TestStoredConfigFallbacks() {
	ctx := context.Background()
	defaults := branch.DefaultConfig()
	defaults.BranchPrefixPattern = "{workspace}/{feature}"

	tests := []struct {
		name   string
		stored string
	}{
		{"unreadable", "{not json"},
		{"invalid", `{"branch_prefix_pattern":"","max_branch_name_length":10,"default_feature_type":"feature","allowed_feature_types":["feature"]}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Require().NoError(s.settings.Put(ctx, db.SettingBranchConfig, tt.stored))
			svc := s.newService(nil, defaults)
			s.Equal(defaults, svc.BranchConfig())
		})
	}

	// A valid update replaces the unreadable blob
	cfg := branch.DefaultConfig()
	cfg.MaxBranchNameLength = 40
	svc := s.newService(nil, defaults)
	s.Require().NoError(svc.UpdateConfig(ctx, cfg))
	s.Equal(cfg, s.newService(nil, defaults).BranchConfig())
}

func (s *DatabaseIntegrationTestSuite) TestTransactionRollback() {
	ctx := context.Background()

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES ('pending', 'x', CURRENT_TIMESTAMP)`); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	s.Require().EqualError(err, "abort")

	_, found, err := s.settings.Get(ctx, "pending")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value, updated_at) VALUES ('committed', 'y', CURRENT_TIMESTAMP)`)
		return err
	}))
	value, found, err := s.settings.Get(ctx, "committed")
	s.Require().NoError(err)
	s.True(found)
	s.Equal("y", value)
}

func TestDatabaseIntegration(t *testing.T) {
	suite.Run(t, new(DatabaseIntegrationTestSuite))
}
