package server

import (
	"branchkit/internal/branch"
	"branchkit/internal/db"
	"branchkit/internal/service"
	"branchkit/internal/vault"
)

// HealthResponse represents the health endpoint payload
type HealthResponse struct {
	Status   string            `json:"status" example:"healthy"`
	Uptime   string            `json:"uptime" example:"2h30m15s"`
	Database string            `json:"database" example:"healthy"`
	Schema   *db.SchemaVersion `json:"schema,omitempty"`
}

// SuccessResponse represents a successful operation response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// CloneRequest represents a request to clone a repository
type CloneRequest struct {
	URL         string             `json:"url" example:"git@github.com:org/repo.git"`
	Path        string             `json:"path" example:"/home/user/src/repo"`
	Credentials *vault.Credentials `json:"credentials,omitempty"`
}

// PathRequest carries a repository path
type PathRequest struct {
	Path string `json:"path" example:"/home/user/src/repo"`
}

// CommitRequest represents a request to commit the index
type CommitRequest struct {
	Path    string `json:"path" example:"/home/user/src/repo"`
	Message string `json:"message" example:"Fix login redirect"`
}

// ExistsResponse reports whether something exists
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// CreateBranchRequest represents a request to create a generated branch
type CreateBranchRequest struct {
	Path string `json:"path" example:"/home/user/src/repo"`
	service.CreateBranchRequest
}

// CreateBranchResponse is the create outcome. Warning is set when the
// branch exists but its history entry could not be written.
type CreateBranchResponse struct {
	service.CreateResult
	Warning string `json:"warning,omitempty"`
}

// BranchNameResponse carries a generated branch name
type BranchNameResponse struct {
	BranchName string `json:"branch_name" example:"shop/jane-laptop/feature-cart"`
}

// SuggestionsResponse lists one suggested name per allowed feature type
type SuggestionsResponse struct {
	Suggestions []service.Suggestion `json:"suggestions"`
}

// HistoryResponse lists branch history entries, newest first
type HistoryResponse struct {
	Entries []service.HistoryEntry `json:"entries"`
	Total   int                    `json:"total"`
}

// BranchConfigResponse wraps the active branch config
type BranchConfigResponse struct {
	Config branch.Config `json:"config"`
}
