// Package validation checks user supplied input before it reaches git or the keyring
package validation

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"branchkit/internal/constants"
	"branchkit/internal/errors"
)

var (
	// scpLikeRegex matches user@host:path remotes
	scpLikeRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:.+$`)

	// remoteSchemes are the transports go-git can clone over
	remoteSchemes = []string{"https://", "http://", "ssh://", "git://", "file://"}
)

// NonEmptyString validates that a string is not empty or only whitespace
func NonEmptyString(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.InvalidInput(field, "non-empty value")
	}
	return nil
}

// Path validates and cleans a local path. Relative paths are accepted.
func Path(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.InvalidInput("path", "non-empty repository path")
	}
	if strings.ContainsRune(path, 0) {
		return "", errors.InvalidPath(path, "contains NUL byte")
	}
	return filepath.Clean(path), nil
}

// AbsolutePath validates a path that must not depend on the working directory
func AbsolutePath(path string) (string, error) {
	cleaned, err := Path(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(cleaned) {
		return "", errors.InvalidPath(path, "must be absolute")
	}
	return cleaned, nil
}

// RemoteURL validates a clone source: a URL with a supported scheme,
// an scp-like user@host:path remote, or a local path.
func RemoteURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.InvalidInput("url", "non-empty repository URL")
	}
	if strings.HasPrefix(url, "-") {
		return errors.InvalidInput(url, "URL must not start with '-'")
	}
	for _, r := range url {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.InvalidInput(url, "URL without whitespace or control characters")
		}
	}

	if i := strings.Index(url, "://"); i > 0 {
		lower := strings.ToLower(url)
		for _, scheme := range remoteSchemes {
			if strings.HasPrefix(lower, scheme) {
				if len(url) == len(scheme) {
					return errors.InvalidInput(url, "URL with a host or path")
				}
				return nil
			}
		}
		return errors.InvalidInput(url, "one of https, http, ssh, git or file schemes")
	}

	// scp-like remotes and local paths
	if scpLikeRegex.MatchString(url) {
		return nil
	}
	_, err := Path(url)
	return err
}

// PortNumber validates a single port number
func PortNumber(port int) error {
	if port < constants.MinPortNumber || port > constants.MaxPortNumber {
		return errors.InvalidInput(strconv.Itoa(port), "port between 1 and 65535")
	}
	return nil
}

// CredentialKey validates a keyring key
func CredentialKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.InvalidInput("key", "non-empty credential key")
	}
	if len(key) > 255 {
		return errors.InvalidInput("key", "credential key of at most 255 characters")
	}
	return nil
}
