// Package git drives on-disk repositories through go-git.
//
// Every operation opens its own repository handle and drops it on return;
// no go-git object outlives a call, so a Driver is safe for concurrent use.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"branchkit/internal/constants"
	"branchkit/internal/logger"
	"branchkit/internal/vault"
)

var (
	// ErrUnbornHead is returned when HEAD points at a branch with no commits.
	ErrUnbornHead = errors.New("repository has no commits yet")
	// ErrNotRepository is returned when a path holds no git repository.
	ErrNotRepository = git.ErrRepositoryNotExists
)

// DetachedHead names the current branch when HEAD is not on a branch.
const DetachedHead = "HEAD"

// Options configures a Driver.
type Options struct {
	SSHDir              string
	InsecureSkipHostKey bool
	FallbackAuthorName  string
	FallbackAuthorEmail string
}

// DefaultOptions mirrors the built-in configuration defaults.
func DefaultOptions() Options {
	return Options{
		InsecureSkipHostKey: true,
		FallbackAuthorName:  constants.FallbackAuthorName,
		FallbackAuthorEmail: constants.FallbackAuthorEmail,
	}
}

type cloneFunc func(ctx context.Context, path string, opts *git.CloneOptions) error

// Driver performs git operations on repositories identified by path.
type Driver struct {
	opts            Options
	clone           cloneFunc
	newNegotiator   func(inline *vault.Credentials) *Negotiator
	credentialTypes func(ep *transport.Endpoint) CredentialType
	now             func() time.Time
}

// NewDriver creates a driver.
func NewDriver(opts Options) *Driver {
	if opts.FallbackAuthorName == "" {
		opts.FallbackAuthorName = constants.FallbackAuthorName
	}
	if opts.FallbackAuthorEmail == "" {
		opts.FallbackAuthorEmail = constants.FallbackAuthorEmail
	}

	d := &Driver{
		opts: opts,
		clone: func(ctx context.Context, path string, o *git.CloneOptions) error {
			_, err := git.PlainCloneContext(ctx, path, false, o)
			return err
		},
		credentialTypes: allowedCredentials,
		now:             time.Now,
	}
	d.newNegotiator = func(inline *vault.Credentials) *Negotiator {
		return NewNegotiator(d.opts.SSHDir, inline, d.opts.InsecureSkipHostKey)
	}

	if opts.InsecureSkipHostKey {
		logger.WithField("component", "git").Warn("Host key and TLS verification are disabled for clone; set git.insecure_skip_host_key_check = false to enable")
	}
	return d
}

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return repo, nil
}

// Clone clones url into dest, negotiating credentials as the remote demands.
// Rejections and transfer failures are reported in the result.
func (d *Driver) Clone(ctx context.Context, url, dest string, inline *vault.Credentials, progress io.Writer) (CloneResult, error) {
	if strings.TrimSpace(url) == "" {
		return CloneResult{}, fmt.Errorf("repository URL cannot be empty")
	}
	if strings.TrimSpace(dest) == "" {
		return CloneResult{}, fmt.Errorf("destination path cannot be empty")
	}

	absPath, err := filepath.Abs(dest)
	if err != nil {
		return CloneResult{}, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), constants.DirPermissions); err != nil {
		return CloneResult{}, fmt.Errorf("failed to create parent directory: %w", err)
	}

	log := logger.WithFields(logger.Fields{"url": url, "path": absPath})

	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return failed(absPath, fmt.Sprintf("Failed to clone repository: %v", err)), nil
	}

	allowed := d.credentialTypes(ep)
	negotiator := d.newNegotiator(inline)
	state := NewNegotiationState()

	// Key-based remotes always demand credentials up front; the others are
	// tried anonymously and only negotiate once rejected.
	var auth transport.AuthMethod
	if allowed.Has(CredentialSSHKey) {
		var strategy Strategy
		auth, strategy, err = negotiator.Next(state, allowed, ep.User)
		if err != nil {
			log.WithError(err).Warn("No credentials to offer")
			return failed(absPath, fmt.Sprintf("Failed to clone repository: %v", err)), nil
		}
		log.WithField("strategy", strategy).Debug("Cloning with credentials")
	}

	for {
		err = d.clone(ctx, absPath, &git.CloneOptions{
			URL:             url,
			Auth:            auth,
			Progress:        progress,
			InsecureSkipTLS: d.opts.InsecureSkipHostKey,
		})
		if err == nil {
			log.WithField("attempts", state.Attempts).Info("Repository cloned")
			return succeeded(absPath, "Repository cloned successfully"), nil
		}

		if ctx.Err() != nil || allowed == 0 || !isAuthFailure(err) {
			log.WithError(err).Warn("Clone failed")
			return failed(absPath, fmt.Sprintf("Failed to clone repository: %v", err)), nil
		}

		var strategy Strategy
		var nextErr error
		auth, strategy, nextErr = negotiator.Next(state, allowed, ep.User)
		if nextErr != nil {
			log.WithError(err).WithField("attempts", state.Attempts).Warn("Credential negotiation ended")
			return failed(absPath, fmt.Sprintf("Failed to clone repository: %v", nextErr)), nil
		}
		log.WithFields(logger.Fields{"strategy": strategy, "attempt": state.Attempts}).Debug("Remote rejected credentials, retrying")
	}
}

// Initialize creates a repository at path whose first branch is "main".
func (d *Driver) Initialize(_ context.Context, path string) (CloneResult, error) {
	if strings.TrimSpace(path) == "" {
		return CloneResult{}, fmt.Errorf("repository path cannot be empty")
	}
	if err := os.MkdirAll(path, constants.DirPermissions); err != nil {
		return CloneResult{}, fmt.Errorf("failed to create repository directory: %w", err)
	}

	_, err := git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(constants.DefaultInitialBranch),
		},
		Bare: false,
	})
	if err != nil {
		return failed(path, fmt.Sprintf("Failed to initialize repository: %v", err)), nil
	}
	return succeeded(path, "Repository initialized successfully"), nil
}

// Status reports the current branch and classified changed paths. A
// repository without commits is an error.
func (d *Driver) Status(_ context.Context, path string) (Status, error) {
	repo, err := open(path)
	if err != nil {
		return Status{}, err
	}

	current, err := currentBranch(repo)
	if err != nil {
		return Status{}, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return Status{}, fmt.Errorf("failed to get worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return Status{}, fmt.Errorf("failed to get status: %w", err)
	}

	staged, modified, untracked := classify(st)
	return Status{
		CurrentBranch:  current,
		IsClean:        len(staged) == 0 && len(modified) == 0 && len(untracked) == 0,
		StagedFiles:    staged,
		ModifiedFiles:  modified,
		UntrackedFiles: untracked,
	}, nil
}

// ListBranches returns local branches sorted by name.
func (d *Driver) ListBranches(_ context.Context, path string) ([]Branch, error) {
	repo, err := open(path)
	if err != nil {
		return nil, err
	}

	current := ""
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		current = head.Name().Short()
	}

	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to get branches: %w", err)
	}

	branches := []Branch{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		b := Branch{Name: name, IsCurrent: name == current}

		hash, message, date := "unknown", "No commits", d.now()
		if commit, err := repo.CommitObject(ref.Hash()); err == nil {
			hash = commit.Hash.String()
			message = summary(commit.Message)
			date = commit.Committer.When
		}
		b.LastCommitHash = &hash
		b.LastCommitMessage = &message
		b.LastCommitDate = &date

		branches = append(branches, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate branches: %w", err)
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// AddAll stages every worktree change, deletions included. A worktree with
// nothing to stage is reported as a failed outcome.
func (d *Driver) AddAll(_ context.Context, path string) (CloneResult, error) {
	repo, err := open(path)
	if err != nil {
		return CloneResult{}, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return CloneResult{}, fmt.Errorf("failed to get worktree: %w", err)
	}

	st, err := wt.Status()
	if err != nil {
		return failed(path, fmt.Sprintf("Failed to add files: %v", err)), nil
	}
	if !hasWorktreeChanges(st) {
		return failed(path, "Failed to add files: nothing to add"), nil
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return failed(path, fmt.Sprintf("Failed to add files: %v", err)), nil
	}
	return succeeded(path, "Added all changes to staging area"), nil
}

// Commit records the index as a new commit on HEAD.
func (d *Driver) Commit(_ context.Context, path, message string) (CloneResult, error) {
	repo, err := open(path)
	if err != nil {
		return CloneResult{}, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return CloneResult{}, fmt.Errorf("failed to get worktree: %w", err)
	}

	author := d.signature(repo)
	if _, err := wt.Commit(message, &git.CommitOptions{Author: author, Committer: author}); err != nil {
		return failed(path, fmt.Sprintf("Failed to commit: %v", err)), nil
	}
	return succeeded(path, fmt.Sprintf("Committed changes: %s", message)), nil
}

// signature prefers the configured git identity and falls back to the
// driver's built-in one.
func (d *Driver) signature(repo *git.Repository) *object.Signature {
	name, email := d.opts.FallbackAuthorName, d.opts.FallbackAuthorEmail
	if cfg, err := repo.ConfigScoped(gitconfig.GlobalScope); err == nil {
		if cfg.User.Name != "" && cfg.User.Email != "" {
			name, email = cfg.User.Name, cfg.User.Email
		}
	}
	return &object.Signature{Name: name, Email: email, When: d.now()}
}

// BranchExists reports whether a local branch named name exists.
func (d *Driver) BranchExists(_ context.Context, path, name string) (bool, error) {
	repo, err := open(path)
	if err != nil {
		return false, err
	}
	_, err = repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up branch %s: %w", name, err)
	}
	return true, nil
}

// CurrentBranch returns the checked-out branch, or "HEAD" when detached.
func (d *Driver) CurrentBranch(_ context.Context, path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}
	return currentBranch(repo)
}

// ResolveRevision returns the commit hash rev points at.
func (d *Driver) ResolveRevision(_ context.Context, path, rev string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", rev, err)
	}
	return hash.String(), nil
}

// RepositoryExists reports whether path opens as a git repository.
func (d *Driver) RepositoryExists(_ context.Context, path string) bool {
	_, err := git.PlainOpen(path)
	return err == nil
}

// CreateBranch creates name at base and checks it out. base may be a
// branch, tag, commit hash or "HEAD". On failure the repository is left on
// its previous HEAD and the new ref is removed.
func (d *Driver) CreateBranch(_ context.Context, path, name, base string) error {
	repo, err := open(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	target, err := repo.ResolveRevision(plumbing.Revision(base))
	if err != nil {
		return fmt.Errorf("failed to resolve base %q: %w", base, err)
	}

	previousHead, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}

	ref := plumbing.NewBranchReferenceName(name)
	_, lookupErr := repo.Storer.Reference(ref)
	existedBefore := lookupErr == nil

	err = wt.Checkout(&git.CheckoutOptions{
		Hash:   *target,
		Branch: ref,
		Create: true,
		Keep:   headAt(repo, *target),
	})
	if err != nil {
		if restoreErr := repo.Storer.SetReference(previousHead); restoreErr != nil {
			logger.WithError(restoreErr).Warn("Failed to restore HEAD after checkout failure")
		}
		if !existedBefore {
			_ = repo.Storer.RemoveReference(ref)
		}
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return nil
}

// Checkout switches to the local branch ref, or detaches at it when ref is
// not a local branch.
func (d *Driver) Checkout(_ context.Context, path, ref string) error {
	repo, err := open(path)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(ref)
	if b, err := repo.Reference(branchRef, true); err == nil {
		if err := wt.Checkout(&git.CheckoutOptions{Branch: branchRef, Keep: headAt(repo, b.Hash())}); err != nil {
			return fmt.Errorf("failed to checkout %s: %w", ref, err)
		}
		return nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", ref, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash, Keep: headAt(repo, *hash)}); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", ref, err)
	}
	return nil
}

func currentBranch(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("%w: %v", ErrUnbornHead, err)
		}
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return DetachedHead, nil
	}
	return head.Name().Short(), nil
}

// headAt reports whether HEAD already resolves to hash; switching between
// refs on the same commit then only moves HEAD and keeps local changes.
func headAt(repo *git.Repository, hash plumbing.Hash) bool {
	head, err := repo.Head()
	return err == nil && head.Hash() == hash
}

func summary(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return strings.TrimSpace(message)
}
