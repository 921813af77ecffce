package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestSignature is the identity used for commits made by test helpers.
var TestSignature = object.Signature{Name: "Test User", Email: "test@example.com"}

// InitRepo creates an empty repository on "main" in a temp directory.
func InitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}
	return dir
}

// WriteFile writes content to a path relative to the repository root.
func WriteFile(t *testing.T, repoPath, name, content string) {
	t.Helper()

	full := filepath.Join(repoPath, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// CommitFile writes, stages and commits a single file, returning the commit hash.
func CommitFile(t *testing.T, repoPath, name, content, message string) plumbing.Hash {
	t.Helper()

	WriteFile(t, repoPath, name, content)

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Failed to stage %s: %v", name, err)
	}

	sig := TestSignature
	sig.When = time.Now()
	hash, err := wt.Commit(message, &git.CommitOptions{Author: &sig, Committer: &sig})
	if err != nil {
		t.Fatalf("Failed to commit %s: %v", name, err)
	}
	return hash
}

// StageFile stages an existing file without committing.
func StageFile(t *testing.T, repoPath, name string) {
	t.Helper()

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Failed to stage %s: %v", name, err)
	}
}

// HeadBranch returns the short name HEAD points to.
func HeadBranch(t *testing.T, repoPath string) string {
	t.Helper()

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Failed to resolve HEAD: %v", err)
	}
	return head.Name().Short()
}
