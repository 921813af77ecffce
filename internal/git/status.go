package git

import (
	"sort"

	"github.com/go-git/go-git/v5"
)

// StatusFlag is a bitmask describing how one path differs from HEAD (index
// side) and from the index (working-tree side).
type StatusFlag uint16

const (
	IndexNew StatusFlag = 1 << iota
	IndexModified
	IndexDeleted
	IndexRenamed
	IndexTypeChange
	WorktreeNew
	WorktreeModified
	WorktreeDeleted
	WorktreeRenamed
	WorktreeTypeChange
)

const (
	stagedMask   = IndexNew | IndexModified | IndexDeleted | IndexRenamed | IndexTypeChange
	modifiedMask = WorktreeModified | WorktreeDeleted | WorktreeRenamed | WorktreeTypeChange
)

// flagsFor translates a go-git file status into StatusFlag bits. go-git has
// no type-change code; such entries surface as modifications.
func flagsFor(fs *git.FileStatus) StatusFlag {
	var flags StatusFlag

	if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
		return WorktreeNew
	}

	switch fs.Staging {
	case git.Added, git.Copied:
		flags |= IndexNew
	case git.Modified:
		flags |= IndexModified
	case git.Deleted:
		flags |= IndexDeleted
	case git.Renamed:
		flags |= IndexRenamed
	}

	switch fs.Worktree {
	case git.Untracked:
		flags |= WorktreeNew
	case git.Modified:
		flags |= WorktreeModified
	case git.Deleted:
		flags |= WorktreeDeleted
	case git.Renamed:
		flags |= WorktreeRenamed
	}

	return flags
}

// Staged reports any index-side change.
func (f StatusFlag) Staged() bool { return f&stagedMask != 0 }

// Modified reports any working-tree change to a tracked path.
func (f StatusFlag) Modified() bool { return f&modifiedMask != 0 }

// Untracked reports a path unknown to the index.
func (f StatusFlag) Untracked() bool { return f&WorktreeNew != 0 }

// classify buckets every path; one path may land in both staged and modified.
func classify(st git.Status) (staged, modified, untracked []string) {
	staged, modified, untracked = []string{}, []string{}, []string{}

	for path, fs := range st {
		flags := flagsFor(fs)
		if flags.Staged() {
			staged = append(staged, path)
		}
		if flags.Modified() {
			modified = append(modified, path)
		}
		if flags.Untracked() {
			untracked = append(untracked, path)
		}
	}

	sort.Strings(staged)
	sort.Strings(modified)
	sort.Strings(untracked)
	return staged, modified, untracked
}

// hasWorktreeChanges reports whether any path differs between the working
// tree and the index.
func hasWorktreeChanges(st git.Status) bool {
	for _, fs := range st {
		flags := flagsFor(fs)
		if flags.Modified() || flags.Untracked() {
			return true
		}
	}
	return false
}
