package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"branchkit/internal/branch"
	"branchkit/internal/errors"
	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/vault"

	"github.com/labstack/echo/v4"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ContextKeyRequestID is the key for request ID in context
const ContextKeyRequestID contextKey = "request_id"

// contextEnricher copies the request ID into the request context so
// handlers can pass it below the HTTP layer
func contextEnricher() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if reqID, ok := c.Get("request_id").(string); ok && reqID != "" {
				ctx := context.WithValue(c.Request().Context(), ContextKeyRequestID, reqID)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// classify turns a service error into a coded error
func classify(err error, path string) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Cancelled("request", err)
	case stderrors.Is(err, git.ErrNotRepository):
		return errors.GitRepoNotFound(path, err)
	case stderrors.Is(err, git.ErrUnbornHead):
		return errors.GitUnbornHead(path, err)
	case stderrors.Is(err, branch.ErrInvalidBranchName):
		return errors.InvalidBranchName(err)
	case stderrors.Is(err, branch.ErrInvalidConfig):
		return errors.ConfigInvalid("branch config rejected", err)
	case stderrors.Is(err, vault.ErrNotFound):
		return errors.CredentialNotFound("", err)
	case path != "":
		return errors.GitOperationFailed("repository", path, err)
	}
	return errors.InternalError("request failed", err)
}

// ErrorHandler writes every error as an HTTPErrorResponse
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !stderrors.As(err, &he) {
		he = errors.ToHTTPError(classify(err, ""))
	}

	body, ok := he.Message.(errors.HTTPErrorResponse)
	if !ok {
		code := errors.ErrInternal
		if he.Code < http.StatusInternalServerError {
			code = errors.ErrInvalidInput
		}
		body = errors.HTTPErrorResponse{Error: errors.ErrorInfo{
			Code:    code,
			Message: http.StatusText(he.Code),
		}}
		if msg, isString := he.Message.(string); isString {
			body.Error.Message = msg
		}
	}

	if reqID, ok := c.Get("request_id").(string); ok {
		if body.Context == nil {
			body.Context = map[string]interface{}{}
		}
		body.Context["request_id"] = reqID
	}

	if he.Code >= http.StatusInternalServerError {
		logger.GetLogger(c).WithError(err).WithField("code", body.Error.Code).Error("Request error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, body)
}
