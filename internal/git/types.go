package git

import "time"

// CloneResult is the outcome of a clone, init, add or commit. Expected
// failures (rejected credentials, nothing to commit) are reported here with
// Success false; only environmental failures come back as errors.
type CloneResult struct {
	Success bool   `json:"success" yaml:"success"`
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

// Status summarises the working tree of a repository.
type Status struct {
	CurrentBranch  string   `json:"current_branch" yaml:"current_branch"`
	IsClean        bool     `json:"is_clean" yaml:"is_clean"`
	StagedFiles    []string `json:"staged_files" yaml:"staged_files"`
	ModifiedFiles  []string `json:"modified_files" yaml:"modified_files"`
	UntrackedFiles []string `json:"untracked_files" yaml:"untracked_files"`
	// Ahead and Behind are always zero; remote tracking is not computed.
	Ahead  int `json:"ahead" yaml:"ahead"`
	Behind int `json:"behind" yaml:"behind"`
}

// Branch is a local branch and its tip commit.
type Branch struct {
	Name              string     `json:"name" yaml:"name"`
	IsCurrent         bool       `json:"is_current" yaml:"is_current"`
	IsRemote          bool       `json:"is_remote" yaml:"is_remote"`
	LastCommitHash    *string    `json:"last_commit_hash,omitempty" yaml:"last_commit_hash,omitempty"`
	LastCommitMessage *string    `json:"last_commit_message,omitempty" yaml:"last_commit_message,omitempty"`
	LastCommitDate    *time.Time `json:"last_commit_date,omitempty" yaml:"last_commit_date,omitempty"`
	AheadCount        *int       `json:"ahead_count,omitempty" yaml:"ahead_count,omitempty"`
	BehindCount       *int       `json:"behind_count,omitempty" yaml:"behind_count,omitempty"`
}

func succeeded(path, message string) CloneResult {
	return CloneResult{Success: true, Path: path, Message: message}
}

func failed(path, message string) CloneResult {
	return CloneResult{Success: false, Path: path, Message: message}
}
