package service

import (
	"context"
	"errors"
	"io"

	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/vault"
	"branchkit/internal/worker"
)

// CloneRepository clones url into dest. When inline is nil, credentials
// stored for the remote are used if there are any.
func (s *Service) CloneRepository(ctx context.Context, url, dest string, inline *vault.Credentials, progress io.Writer) (git.CloneResult, error) {
	if inline == nil {
		inline = s.storedCredentials(url)
	}
	return worker.Do(ctx, s.pool, func() (git.CloneResult, error) {
		return s.driver.Clone(ctx, url, dest, inline, progress)
	})
}

func (s *Service) storedCredentials(url string) *vault.Credentials {
	if s.credentials == nil {
		return nil
	}
	key := vault.KeyForURL(url)
	creds, err := s.credentials.Get(key)
	if err != nil {
		if !errors.Is(err, vault.ErrNotFound) {
			logger.WithError(err).WithField("key", key).Warn("Failed to read stored credentials")
		}
		return nil
	}
	logger.WithField("key", key).Debug("Using stored credentials for clone")
	return &creds
}

// InitializeRepository creates a repository at path
func (s *Service) InitializeRepository(ctx context.Context, path string) (git.CloneResult, error) {
	return worker.Do(ctx, s.pool, func() (git.CloneResult, error) {
		return s.driver.Initialize(ctx, path)
	})
}

// RepositoryStatus reports the working tree state of the repository at path
func (s *Service) RepositoryStatus(ctx context.Context, path string) (git.Status, error) {
	return worker.Do(ctx, s.pool, func() (git.Status, error) {
		return s.driver.Status(ctx, path)
	})
}

// RepositoryExists reports whether path holds a repository
func (s *Service) RepositoryExists(ctx context.Context, path string) (bool, error) {
	return worker.Do(ctx, s.pool, func() (bool, error) {
		return s.driver.RepositoryExists(ctx, path), nil
	})
}

// AddAll stages every change in the repository at path
func (s *Service) AddAll(ctx context.Context, path string) (git.CloneResult, error) {
	return worker.Do(ctx, s.pool, func() (git.CloneResult, error) {
		return s.driver.AddAll(ctx, path)
	})
}

// Commit records the index of the repository at path
func (s *Service) Commit(ctx context.Context, path, message string) (git.CloneResult, error) {
	return worker.Do(ctx, s.pool, func() (git.CloneResult, error) {
		return s.driver.Commit(ctx, path, message)
	})
}

// CurrentBranch returns the checked-out branch of the repository at path
func (s *Service) CurrentBranch(ctx context.Context, path string) (string, error) {
	return worker.Do(ctx, s.pool, func() (string, error) {
		return s.driver.CurrentBranch(ctx, path)
	})
}
