package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"branchkit/internal/branch"
	"branchkit/internal/db"
	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/worker"
)

// CreateBranchRequest describes a branch to generate and create
type CreateBranchRequest struct {
	Pattern    branch.Pattern `json:"pattern" yaml:"pattern"`
	BaseBranch *string        `json:"base_branch,omitempty" yaml:"base_branch,omitempty"`
	AutoSwitch bool           `json:"auto_switch" yaml:"auto_switch"`
}

// CreateResult is the outcome of CreateBranch. An existing branch or a
// failed checkout is reported here, not as an error.
type CreateResult struct {
	BranchName string `json:"branch_name" yaml:"branch_name"`
	Created    bool   `json:"created" yaml:"created"`
	Switched   bool   `json:"switched" yaml:"switched"`
	Message    string `json:"message" yaml:"message"`
}

// HistoryEntry is a decoded branch history record
type HistoryEntry struct {
	ID         string         `json:"id" yaml:"id"`
	BranchName string         `json:"branch_name" yaml:"branch_name"`
	Pattern    branch.Pattern `json:"pattern" yaml:"pattern"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
}

// CreateBranch generates a name from req.Pattern and creates it in the
// repository at path, branching from req.BaseBranch or the current branch.
// Unless req.AutoSwitch is set the previous branch is checked out again;
// when that fails the caller is left on the new branch. Every created branch
// is recorded in the history.
func (s *Service) CreateBranch(ctx context.Context, path string, req CreateBranchRequest) (CreateResult, error) {
	name, err := s.generator.Load().Generate(req.Pattern)
	if err != nil {
		return CreateResult{}, err
	}

	log := logger.WithFields(logger.Fields{"path": path, "branch": name})

	exists, err := worker.Do(ctx, s.pool, func() (bool, error) {
		return s.driver.BranchExists(ctx, path, name)
	})
	if err != nil {
		return CreateResult{}, err
	}
	if exists {
		return CreateResult{
			BranchName: name,
			Message:    fmt.Sprintf("Branch '%s' already exists", name),
		}, nil
	}

	base, err := s.resolveBase(ctx, path, req.BaseBranch)
	if err != nil {
		return CreateResult{}, err
	}

	// Creation, switch-back and the history entry run as one job so a
	// caller that stops waiting never leaves a created branch unrecorded.
	return worker.Do(ctx, s.pool, func() (CreateResult, error) {
		if err := s.driver.CreateBranch(ctx, path, name, base); err != nil {
			log.WithError(err).Warn("Branch creation failed")
			return CreateResult{BranchName: name, Message: err.Error()}, nil
		}

		result := CreateResult{
			BranchName: name,
			Created:    true,
			Switched:   true,
			Message:    fmt.Sprintf("Created and switched to branch '%s'", name),
		}

		if !req.AutoSwitch {
			if err := s.driver.Checkout(ctx, path, base); err == nil {
				result.Switched = false
				result.Message = fmt.Sprintf("Created branch '%s' (stayed on '%s')", name, base)
			} else {
				log.WithError(err).WithField("base", base).Warn("Could not switch back to base branch")
			}
		}

		if err := s.recordHistory(ctx, name, req.Pattern); err != nil {
			return result, err
		}

		log.WithFields(logger.Fields{"base": base, "switched": result.Switched}).Info("Branch created")
		return result, nil
	})
}

// resolveBase picks the revision a new branch starts from: the requested
// base, else the current branch. A detached HEAD is pinned to its commit so
// switching back returns to the same place.
func (s *Service) resolveBase(ctx context.Context, path string, requested *string) (string, error) {
	if requested != nil && *requested != "" {
		return *requested, nil
	}

	return worker.Do(ctx, s.pool, func() (string, error) {
		current, err := s.driver.CurrentBranch(ctx, path)
		if err != nil || current != git.DetachedHead {
			return current, err
		}
		return s.driver.ResolveRevision(ctx, path, git.DetachedHead)
	})
}

// recordHistory writes the entry even when ctx is already done; the branch
// exists at this point.
func (s *Service) recordHistory(ctx context.Context, name string, p branch.Pattern) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode branch pattern: %w", err)
	}

	rec := &db.HistoryRecord{
		BranchName:  name,
		PatternJSON: string(blob),
		CreatedAt:   s.now(),
	}
	if err := s.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		return fmt.Errorf("branch %s created but history was not recorded: %w", name, err)
	}
	return nil
}

// ListBranches lists local branches of the repository at path
func (s *Service) ListBranches(ctx context.Context, path string) ([]git.Branch, error) {
	return worker.Do(ctx, s.pool, func() ([]git.Branch, error) {
		return s.driver.ListBranches(ctx, path)
	})
}

// GetBranchHistory returns up to limit entries, newest first. Entries whose
// stored pattern no longer decodes are skipped.
func (s *Service) GetBranchHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	records, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		var p branch.Pattern
		if err := json.Unmarshal([]byte(rec.PatternJSON), &p); err != nil {
			logger.WithError(err).WithField("id", rec.ID).Debug("Skipping undecodable history entry")
			continue
		}
		entries = append(entries, HistoryEntry{
			ID:         rec.ID,
			BranchName: rec.BranchName,
			Pattern:    p,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return entries, nil
}
