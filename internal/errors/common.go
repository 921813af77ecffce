package errors

import "fmt"

// Configuration Errors
func ConfigInvalid(reason string, cause error) *BranchkitError {
	return WrapWithDetails(ErrConfigInvalid, "Invalid configuration", reason, cause)
}

func ConfigParseError(cause error) *BranchkitError {
	return Wrap(ErrConfigParse, "Failed to parse configuration", cause)
}

// Git Errors
func GitRepoNotFound(path string, cause error) *BranchkitError {
	return WrapWithDetails(ErrGitRepoNotFound, "Git repository not found", fmt.Sprintf("Path: %s", path), cause)
}

func GitOperationFailed(operation, path string, cause error) *BranchkitError {
	return WrapWithDetails(ErrGitOperation, "Git operation failed",
		fmt.Sprintf("Operation: %s, Path: %s", operation, path), cause)
}

func GitUnbornHead(path string, cause error) *BranchkitError {
	return WrapWithDetails(ErrGitUnbornHead, "Repository has no commits yet",
		fmt.Sprintf("Path: %s", path), cause)
}

// Branch Errors
func InvalidBranchName(cause error) *BranchkitError {
	return Wrap(ErrInvalidBranchName, "Invalid branch name", cause)
}

// Credential Errors
func CredentialNotFound(key string, cause error) *BranchkitError {
	return WrapWithDetails(ErrCredentialNotFound, "Credentials not found", fmt.Sprintf("Key: %s", key), cause)
}

func CredentialStoreFailed(key string, cause error) *BranchkitError {
	return WrapWithDetails(ErrCredentialStore, "Credential store operation failed", fmt.Sprintf("Key: %s", key), cause)
}

// Database Errors
func DatabaseConnectionError(cause error) *BranchkitError {
	return Wrap(ErrDatabaseConnection, "Database connection failed", cause)
}

func DatabaseQueryError(operation string, cause error) *BranchkitError {
	return WrapWithDetails(ErrDatabaseQuery, "Database query failed",
		fmt.Sprintf("Operation: %s", operation), cause)
}

func DatabaseMigrationError(cause error) *BranchkitError {
	return Wrap(ErrDatabaseMigration, "Database migration failed", cause)
}

// Validation Errors
func InvalidInput(input, expected string) *BranchkitError {
	return NewWithDetails(ErrInvalidInput, "Invalid input",
		fmt.Sprintf("Input: %s, Expected: %s", input, expected))
}

func InvalidPath(path, reason string) *BranchkitError {
	return NewWithDetails(ErrInvalidPath, "Invalid path",
		fmt.Sprintf("Path: %s, Reason: %s", path, reason))
}

// Internal Errors
func InternalError(details string, cause error) *BranchkitError {
	if cause != nil {
		return WrapWithDetails(ErrInternal, "Internal error", details, cause)
	}
	return NewWithDetails(ErrInternal, "Internal error", details)
}

func Cancelled(operation string, cause error) *BranchkitError {
	return WrapWithDetails(ErrCancelled, "Operation cancelled", fmt.Sprintf("Operation: %s", operation), cause)
}
