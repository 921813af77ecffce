package git

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"

	"branchkit/internal/constants"
	"branchkit/internal/logger"
	"branchkit/internal/vault"
)

// CredentialType is a bitmask of the credential kinds a remote accepts.
type CredentialType uint8

const (
	CredentialSSHKey CredentialType = 1 << iota
	CredentialUserPass
)

// Has reports whether t includes all bits of other.
func (t CredentialType) Has(other CredentialType) bool {
	return t&other == other
}

// Strategy tags one way of producing credentials.
type Strategy string

const (
	StrategySSHAgent Strategy = "ssh_agent"
	StrategySSHKeys  Strategy = "ssh_keys"
	StrategyUserPass Strategy = "userpass"
)

var (
	// ErrAuthExhausted is returned once the attempt cap is passed.
	ErrAuthExhausted = errors.New("authentication failed after multiple attempts")
	// ErrNoAuthMethod is returned when every applicable strategy was used.
	ErrNoAuthMethod = errors.New("no authentication method available")
)

// defaultKeyNames are tried in order under the SSH directory.
var defaultKeyNames = []string{"id_ed25519", "id_rsa", "id_ecdsa"}

// NegotiationState is threaded through every credential request of one clone.
type NegotiationState struct {
	Attempts int
	Tried    map[Strategy]bool
}

// NewNegotiationState returns an empty state.
func NewNegotiationState() *NegotiationState {
	return &NegotiationState{Tried: make(map[Strategy]bool)}
}

func (s *NegotiationState) try(strategy Strategy) bool {
	if s.Tried[strategy] {
		return false
	}
	s.Tried[strategy] = true
	return true
}

// Negotiator hands out credentials for successive authentication requests.
type Negotiator struct {
	MaxAttempts         int
	SSHDir              string
	Inline              *vault.Credentials
	InsecureSkipHostKey bool

	AgentAuth func(user string) (transport.AuthMethod, error)
	KeyAuth   func(user, keyPath string) (transport.AuthMethod, error)
}

// NewNegotiator wires the go-git ssh constructors.
func NewNegotiator(sshDir string, inline *vault.Credentials, insecure bool) *Negotiator {
	n := &Negotiator{
		MaxAttempts:         constants.MaxAuthAttempts,
		SSHDir:              sshDir,
		Inline:              inline,
		InsecureSkipHostKey: insecure,
	}
	n.AgentAuth = func(user string) (transport.AuthMethod, error) {
		auth, err := ssh.NewSSHAgentAuth(user)
		if err != nil {
			return nil, err
		}
		if n.InsecureSkipHostKey {
			auth.HostKeyCallback = gossh.InsecureIgnoreHostKey()
		}
		return auth, nil
	}
	n.KeyAuth = func(user, keyPath string) (transport.AuthMethod, error) {
		auth, err := ssh.NewPublicKeysFromFile(user, keyPath, "")
		if err != nil {
			return nil, err
		}
		if n.InsecureSkipHostKey {
			auth.HostKeyCallback = gossh.InsecureIgnoreHostKey()
		}
		return auth, nil
	}
	return n
}

// Next answers one authentication request. Every call counts as an attempt;
// the call after MaxAttempts fails with ErrAuthExhausted.
func (n *Negotiator) Next(state *NegotiationState, allowed CredentialType, user string) (transport.AuthMethod, Strategy, error) {
	state.Attempts++
	if state.Attempts > n.MaxAttempts {
		return nil, "", ErrAuthExhausted
	}
	if user == "" {
		user = constants.DefaultSSHUser
	}

	log := logger.WithFields(logger.Fields{"attempt": state.Attempts, "user": user})

	if allowed.Has(CredentialSSHKey) {
		if state.Attempts == 1 && state.try(StrategySSHAgent) {
			auth, err := n.AgentAuth(user)
			if err == nil {
				log.Debug("Offering ssh-agent identity")
				return auth, StrategySSHAgent, nil
			}
			log.WithError(err).Debug("ssh-agent unavailable")
		}

		if state.try(StrategySSHKeys) {
			for _, keyPath := range n.keyCandidates() {
				auth, err := n.KeyAuth(user, keyPath)
				if err != nil {
					log.WithError(err).WithField("key", keyPath).Debug("Skipping unusable ssh key")
					continue
				}
				log.WithField("key", keyPath).Debug("Offering ssh key")
				return auth, StrategySSHKeys, nil
			}
		}
	}

	if allowed.Has(CredentialUserPass) && state.try(StrategyUserPass) && n.Inline != nil {
		log.Debug("Offering inline username/password")
		return &http.BasicAuth{Username: n.Inline.Username, Password: n.Inline.Password}, StrategyUserPass, nil
	}

	return nil, "", ErrNoAuthMethod
}

// keyCandidates lists the explicit key first, then the conventional key
// pairs present on disk.
func (n *Negotiator) keyCandidates() []string {
	var out []string
	if n.Inline != nil && n.Inline.SSHKeyPath != nil && *n.Inline.SSHKeyPath != "" {
		out = append(out, *n.Inline.SSHKeyPath)
	}
	if n.SSHDir == "" {
		return out
	}
	for _, name := range defaultKeyNames {
		private := filepath.Join(n.SSHDir, name)
		if fileExists(private) && fileExists(private+".pub") {
			out = append(out, private)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// allowedCredentials derives which credential kinds the remote will ask for
// from the URL scheme.
func allowedCredentials(ep *transport.Endpoint) CredentialType {
	switch strings.ToLower(ep.Protocol) {
	case "ssh", "git+ssh", "ssh+git":
		return CredentialSSHKey
	case "http", "https":
		return CredentialUserPass
	default:
		return 0
	}
}

// isAuthFailure reports whether a clone error means the remote rejected
// (or demanded) credentials.
func isAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrInvalidAuthMethod) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") || strings.Contains(msg, "no supported methods remain")
}
