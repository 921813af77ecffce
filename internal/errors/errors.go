// Package errors provides the coded error type used at the branchkit
// boundaries (CLI and HTTP). Packages below the boundary return plain wrapped
// errors; handlers translate them into BranchkitError values.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrConfigParse   ErrorCode = "CONFIG_PARSE"

	// Git errors
	ErrGitRepoNotFound ErrorCode = "GIT_REPO_NOT_FOUND"
	ErrGitOperation    ErrorCode = "GIT_OPERATION_FAILED"
	ErrGitUnbornHead   ErrorCode = "GIT_UNBORN_HEAD"

	// Branch naming errors
	ErrInvalidBranchName ErrorCode = "INVALID_BRANCH_NAME"

	// Credential errors
	ErrCredentialNotFound ErrorCode = "CREDENTIAL_NOT_FOUND"
	ErrCredentialStore    ErrorCode = "CREDENTIAL_STORE"

	// Database errors
	ErrDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	ErrDatabaseQuery      ErrorCode = "DATABASE_QUERY"
	ErrDatabaseMigration  ErrorCode = "DATABASE_MIGRATION"

	// Validation errors
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrInvalidPath  ErrorCode = "INVALID_PATH"

	// Internal errors
	ErrInternal  ErrorCode = "INTERNAL_ERROR"
	ErrCancelled ErrorCode = "CANCELLED"
)

// BranchkitError represents a structured error with additional context
type BranchkitError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *BranchkitError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *BranchkitError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BranchkitError) WithContext(key string, value interface{}) *BranchkitError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *BranchkitError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}

	switch e.Code {
	case ErrGitRepoNotFound, ErrCredentialNotFound:
		return http.StatusNotFound
	case ErrConfigInvalid, ErrInvalidBranchName, ErrInvalidInput, ErrInvalidPath:
		return http.StatusBadRequest
	case ErrGitUnbornHead:
		return http.StatusConflict
	case ErrCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new BranchkitError
func New(code ErrorCode, message string) *BranchkitError {
	return &BranchkitError{Code: code, Message: message}
}

// NewWithDetails creates a new BranchkitError with details
func NewWithDetails(code ErrorCode, message, details string) *BranchkitError {
	return &BranchkitError{Code: code, Message: message, Details: details}
}

// Wrap creates a new BranchkitError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *BranchkitError {
	return &BranchkitError{Code: code, Message: message, Cause: cause}
}

// WrapWithDetails creates a new BranchkitError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *BranchkitError {
	return &BranchkitError{Code: code, Message: message, Details: details, Cause: cause}
}

// As finds the first BranchkitError in err's chain.
func As(err error) (*BranchkitError, bool) {
	var be *BranchkitError
	if stderrors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// GetCode extracts the error code from an error chain
func GetCode(err error) ErrorCode {
	if be, ok := As(err); ok {
		return be.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
