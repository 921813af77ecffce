package branch

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidBranchName is wrapped by every ValidateName failure.
var ErrInvalidBranchName = errors.New("invalid branch name")

// forbiddenChars mirrors the git ref-name characters rejected by ValidateName.
const forbiddenChars = "~^:?*[\\ "

// Sanitize lowercases s, maps anything outside [letters, digits, '-', '_']
// to '-', and collapses separator runs so the result never starts or ends
// with a hyphen.
func Sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(s))

	parts := strings.FieldsFunc(mapped, func(r rune) bool { return r == '-' })
	return strings.Join(parts, "-")
}

// ValidateName enforces the ref-name restrictions applied to every
// generated branch name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: branch name cannot be empty", ErrInvalidBranchName)
	case strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-"):
		return fmt.Errorf("%w: branch name cannot start or end with hyphen", ErrInvalidBranchName)
	case strings.Contains(name, "..") || strings.Contains(name, "//"):
		return fmt.Errorf("%w: branch name cannot contain consecutive dots or slashes", ErrInvalidBranchName)
	case strings.ContainsAny(name, forbiddenChars):
		return fmt.Errorf("%w: branch name contains forbidden characters", ErrInvalidBranchName)
	}
	return nil
}
