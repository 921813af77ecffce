// Package vault stores git credentials in the OS secret store.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"

	"branchkit/internal/constants"
)

// ErrNotFound is returned when no credential exists for a key.
var ErrNotFound = errors.New("credentials not found")

// Credentials is the blob stored per key.
type Credentials struct {
	Username   string  `json:"username" yaml:"username"`
	Password   string  `json:"password" yaml:"password"`
	SSHKeyPath *string `json:"ssh_key_path,omitempty" yaml:"ssh_key_path,omitempty"`
}

// Backend is the opaque key-value secret store.
type Backend interface {
	Set(service, user, secret string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

type keyringBackend struct{}

func (keyringBackend) Set(service, user, secret string) error { return keyring.Set(service, user, secret) }
func (keyringBackend) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (keyringBackend) Delete(service, user string) error { return keyring.Delete(service, user) }

// Vault stores Credentials as JSON under a fixed keyring service.
type Vault struct {
	service string
	backend Backend
}

// New returns a vault backed by the OS keyring.
func New() *Vault {
	return NewWithBackend(constants.KeyringService, keyringBackend{})
}

// NewWithBackend returns a vault over an arbitrary backend.
func NewWithBackend(service string, backend Backend) *Vault {
	return &Vault{service: service, backend: backend}
}

// Store writes creds under key, replacing any previous value.
func (v *Vault) Store(key string, creds Credentials) error {
	if key == "" {
		return fmt.Errorf("credential key cannot be empty")
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	if err := v.backend.Set(v.service, key, string(data)); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Get returns the credentials under key, or ErrNotFound.
func (v *Vault) Get(key string) (Credentials, error) {
	secret, err := v.backend.Get(v.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Credentials{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Credentials{}, fmt.Errorf("failed to retrieve credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(secret), &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to deserialize credentials: %w", err)
	}
	return creds, nil
}

// Delete removes the credentials under key, or returns ErrNotFound.
func (v *Vault) Delete(key string) error {
	if err := v.backend.Delete(v.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// Exists reports whether a readable credential is stored under key.
func (v *Vault) Exists(key string) bool {
	_, err := v.Get(key)
	return err == nil
}

// KeyForURL derives a stable credential key from a remote URL: host and
// path without scheme, user info, or a trailing ".git".
// "git@github.com:org/repo.git" and "https://github.com/org/repo" map to
// the same key.
func KeyForURL(raw string) string {
	s := strings.TrimSpace(raw)

	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = u.Host + u.Path
	} else if at := strings.Index(s, "@"); at >= 0 && strings.Contains(s[at:], ":") {
		// scp-like syntax: user@host:path
		s = strings.Replace(s[at+1:], ":", "/", 1)
	}

	s = strings.TrimSuffix(strings.TrimRight(s, "/"), ".git")
	return strings.ToLower(s)
}
