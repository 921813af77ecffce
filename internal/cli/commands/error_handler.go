package commands

import (
	"context"
	"errors"
	"fmt"

	"branchkit/internal/branch"
	bkerrors "branchkit/internal/errors"
	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/vault"
)

// ErrOutcomeFailed is returned after a failed domain outcome was already
// printed, so the process exits non-zero without printing it twice.
var ErrOutcomeFailed = errors.New("operation did not succeed")

// HandleError adds a hint for errors a user can act on
func HandleError(err error) error {
	if err == nil || errors.Is(err, ErrOutcomeFailed) {
		return err
	}

	logger.WithError(err).Debug("Command failed")

	switch {
	case errors.Is(err, git.ErrNotRepository):
		return fmt.Errorf("%w\n\nTip: Run 'branchkit repo init <path>' or pass the path of an existing repository.", err)
	case errors.Is(err, git.ErrUnbornHead):
		return fmt.Errorf("%w\n\nTip: The repository has no commits yet. Create one with 'branchkit repo add' and 'branchkit repo commit'.", err)
	case errors.Is(err, vault.ErrNotFound):
		return fmt.Errorf("%w\n\nTip: Use 'branchkit creds store <key>' to save credentials.", err)
	case errors.Is(err, branch.ErrInvalidBranchName):
		return fmt.Errorf("%w\n\nTip: Check the branch prefix pattern with 'branchkit config show'.", err)
	case bkerrors.HasCode(err, bkerrors.ErrConfigParse):
		return fmt.Errorf("%w\n\nTip: Fix the file or run 'branchkit config init --force' to rewrite it.", err)
	case errors.Is(err, branch.ErrInvalidConfig):
		return fmt.Errorf("%w\n\nTip: Run 'branchkit config init --force' to restore the defaults.", err)
	default:
		return err
	}
}

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	return errors.Is(err, ErrOutcomeFailed)
}

// ExitCode maps an error to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, git.ErrNotRepository), errors.Is(err, vault.ErrNotFound):
		return 2
	default:
		return 1
	}
}
