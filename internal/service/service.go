// Package service orchestrates branch automation on top of the git driver,
// the history store and the branch naming generator.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"branchkit/internal/branch"
	"branchkit/internal/db"
	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/sysinfo"
	"branchkit/internal/vault"
	"branchkit/internal/worker"
)

// RepositoryDriver is the subset of the git driver the service uses
type RepositoryDriver interface {
	Clone(ctx context.Context, url, dest string, inline *vault.Credentials, progress io.Writer) (git.CloneResult, error)
	Initialize(ctx context.Context, path string) (git.CloneResult, error)
	Status(ctx context.Context, path string) (git.Status, error)
	ListBranches(ctx context.Context, path string) ([]git.Branch, error)
	AddAll(ctx context.Context, path string) (git.CloneResult, error)
	Commit(ctx context.Context, path, message string) (git.CloneResult, error)
	BranchExists(ctx context.Context, path, name string) (bool, error)
	CurrentBranch(ctx context.Context, path string) (string, error)
	ResolveRevision(ctx context.Context, path, rev string) (string, error)
	RepositoryExists(ctx context.Context, path string) bool
	CreateBranch(ctx context.Context, path, name, base string) error
	Checkout(ctx context.Context, path, ref string) error
}

// HistoryStore is the append-only branch creation log
type HistoryStore interface {
	Append(ctx context.Context, rec *db.HistoryRecord) error
	ListRecent(ctx context.Context, limit int) ([]db.HistoryRecord, error)
}

// ConfigStore persists named configuration blobs
type ConfigStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// CredentialSource looks up stored credentials for a clone
type CredentialSource interface {
	Get(key string) (vault.Credentials, error)
}

// Options wires a Service. Driver, History and Settings are required.
type Options struct {
	Driver      RepositoryDriver
	History     HistoryStore
	Settings    ConfigStore
	Credentials CredentialSource
	Pool        *worker.Pool
	System      sysinfo.Info
	// Defaults is used when no configuration has been persisted yet
	Defaults branch.Config
	Now      func() time.Time
}

// Service is the branch automation service. Reads take a snapshot of the
// current generator and never block; UpdateConfig calls are serialized.
type Service struct {
	driver      RepositoryDriver
	history     HistoryStore
	settings    ConfigStore
	credentials CredentialSource
	pool        *worker.Pool
	now         func() time.Time

	generator atomic.Pointer[branch.Generator]
	updateMu  sync.Mutex
}

// New creates the service, loading the persisted branch configuration when
// one exists.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Driver == nil || opts.History == nil || opts.Settings == nil {
		return nil, fmt.Errorf("driver, history and settings are required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		driver:      opts.Driver,
		history:     opts.History,
		settings:    opts.Settings,
		credentials: opts.Credentials,
		pool:        opts.Pool,
		now:         opts.Now,
	}

	cfg, err := s.loadConfig(ctx, opts.Defaults)
	if err != nil {
		return nil, err
	}
	s.generator.Store(branch.NewGenerator(cfg, opts.System))
	return s, nil
}

func (s *Service) loadConfig(ctx context.Context, defaults branch.Config) (branch.Config, error) {
	if err := defaults.Validate(); err != nil {
		defaults = branch.DefaultConfig()
	}

	blob, found, err := s.settings.Get(ctx, db.SettingBranchConfig)
	if err != nil {
		return branch.Config{}, fmt.Errorf("failed to load branch config: %w", err)
	}
	if !found {
		return defaults, nil
	}

	var cfg branch.Config
	if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
		logger.WithError(err).Warn("Stored branch config is unreadable, using defaults")
		return defaults, nil
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Warn("Stored branch config is invalid, using defaults")
		return defaults, nil
	}
	return cfg, nil
}

// SystemInfo returns the identity resolved when the service was created
func (s *Service) SystemInfo() sysinfo.Info {
	return s.generator.Load().SystemInfo()
}

// BranchConfig returns a snapshot of the active configuration
func (s *Service) BranchConfig() branch.Config {
	return s.generator.Load().Config()
}

// UpdateConfig validates and persists cfg, then replaces the generator. The
// system identity is preserved. A branch creation already in flight may
// finish with the previous configuration.
func (s *Service) UpdateConfig(ctx context.Context, cfg branch.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	blob, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode branch config: %w", err)
	}
	if err := s.settings.Put(ctx, db.SettingBranchConfig, string(blob)); err != nil {
		return fmt.Errorf("failed to persist branch config: %w", err)
	}

	system := s.generator.Load().SystemInfo()
	s.generator.Store(branch.NewGenerator(cfg, system))

	logger.WithFields(logger.Fields{
		"pattern":    cfg.BranchPrefixPattern,
		"max_length": cfg.MaxBranchNameLength,
	}).Info("Branch config updated")
	return nil
}

// GenerateBranchName generates a name with the active configuration
func (s *Service) GenerateBranchName(p branch.Pattern) (string, error) {
	return s.generator.Load().Generate(p)
}

// SuggestBranchPattern builds a pattern for workspace from the system identity.
// A nil feature type selects the configured default.
func (s *Service) SuggestBranchPattern(workspace string, featureType *branch.FeatureType) branch.Pattern {
	return s.generator.Load().SuggestPattern(workspace, featureType)
}

// Suggestion is one candidate branch name for a feature type
type Suggestion struct {
	FeatureType branch.FeatureType `json:"feature_type" yaml:"feature_type"`
	BranchName  string             `json:"branch_name" yaml:"branch_name"`
}

// GetSuggestedBranches returns a candidate for every allowed feature type.
// Types whose name fails to generate are left out.
func (s *Service) GetSuggestedBranches(workspace string) []Suggestion {
	gen := s.generator.Load()
	cfg := gen.Config()

	suggestions := []Suggestion{}
	for _, ft := range cfg.AllowedFeatureTypes {
		ft := ft
		name, err := gen.Generate(gen.SuggestPattern(workspace, &ft))
		if err != nil {
			logger.WithError(err).WithField("feature_type", ft).Debug("Skipping suggestion")
			continue
		}
		suggestions = append(suggestions, Suggestion{FeatureType: ft, BranchName: name})
	}
	return suggestions
}
