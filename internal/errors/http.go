package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Error   ErrorInfo              `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ToHTTPError converts an error to an Echo HTTP error
func ToHTTPError(err error) *echo.HTTPError {
	if be, ok := As(err); ok {
		details := be.Details
		if be.Cause != nil {
			if details != "" {
				details += ": "
			}
			details += be.Cause.Error()
		}
		return echo.NewHTTPError(be.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    be.Code,
				Message: be.Message,
				Details: details,
			},
			Context: be.Context,
		})
	}

	return echo.NewHTTPError(http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	})
}

// BadRequest creates a 400 Bad Request error
func BadRequest(message, details string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInvalidInput,
			Message: message,
			Details: details,
		},
	})
}
