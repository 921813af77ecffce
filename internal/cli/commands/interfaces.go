package commands

import (
	"context"
	"io"

	"branchkit/internal/branch"
	"branchkit/internal/git"
	"branchkit/internal/service"
	"branchkit/internal/sysinfo"
	"branchkit/internal/vault"
)

// BranchService is the service surface the commands drive.
type BranchService interface {
	CloneRepository(ctx context.Context, url, dest string, inline *vault.Credentials, progress io.Writer) (git.CloneResult, error)
	InitializeRepository(ctx context.Context, path string) (git.CloneResult, error)
	RepositoryStatus(ctx context.Context, path string) (git.Status, error)
	RepositoryExists(ctx context.Context, path string) (bool, error)
	AddAll(ctx context.Context, path string) (git.CloneResult, error)
	Commit(ctx context.Context, path, message string) (git.CloneResult, error)

	ListBranches(ctx context.Context, path string) ([]git.Branch, error)
	CreateBranch(ctx context.Context, path string, req service.CreateBranchRequest) (service.CreateResult, error)
	GenerateBranchName(p branch.Pattern) (string, error)
	SuggestBranchPattern(workspace string, featureType *branch.FeatureType) branch.Pattern
	GetSuggestedBranches(workspace string) []service.Suggestion
	GetBranchHistory(ctx context.Context, limit int) ([]service.HistoryEntry, error)
	BranchConfig() branch.Config
	UpdateConfig(ctx context.Context, cfg branch.Config) error
	SystemInfo() sysinfo.Info
}

// CredentialStore is the vault surface the commands drive.
type CredentialStore interface {
	Store(key string, creds vault.Credentials) error
	Get(key string) (vault.Credentials, error)
	Delete(key string) error
	Exists(key string) bool
}
