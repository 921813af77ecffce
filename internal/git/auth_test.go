package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"branchkit/internal/vault"
)

// fakeAuth identifies which strategy produced a credential.
type fakeAuth struct{ label string }

func (a fakeAuth) Name() string   { return a.label }
func (a fakeAuth) String() string { return a.label }

type stubCalls struct {
	agent []string
	keys  []string
}

func stubNegotiator(n *Negotiator, agentErr error, calls *stubCalls) *Negotiator {
	n.AgentAuth = func(user string) (transport.AuthMethod, error) {
		calls.agent = append(calls.agent, user)
		if agentErr != nil {
			return nil, agentErr
		}
		return fakeAuth{"agent"}, nil
	}
	n.KeyAuth = func(user, keyPath string) (transport.AuthMethod, error) {
		calls.keys = append(calls.keys, filepath.Base(keyPath))
		if filepath.Base(keyPath) == "id_ed25519" {
			return nil, errors.New("encrypted key")
		}
		return fakeAuth{"key:" + filepath.Base(keyPath)}, nil
	}
	return n
}

func writeKeyPair(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("private"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".pub"), []byte("public"), 0644))
}

func TestNegotiatorStrategyOrder(t *testing.T) {
	sshDir := t.TempDir()
	writeKeyPair(t, sshDir, "id_ed25519")
	writeKeyPair(t, sshDir, "id_rsa")
	writeKeyPair(t, sshDir, "id_ecdsa")

	calls := &stubCalls{}
	n := stubNegotiator(NewNegotiator(sshDir, &vault.Credentials{Username: "u", Password: "p"}, true), nil, calls)
	state := NewNegotiationState()
	allowed := CredentialSSHKey | CredentialUserPass

	auth, strategy, err := n.Next(state, allowed, "")
	require.NoError(t, err)
	assert.Equal(t, StrategySSHAgent, strategy)
	assert.Equal(t, "agent", auth.Name())
	assert.Equal(t, []string{"git"}, calls.agent)

	// ed25519 fails to load, rsa is the first constructible key
	auth, strategy, err = n.Next(state, allowed, "deploy")
	require.NoError(t, err)
	assert.Equal(t, StrategySSHKeys, strategy)
	assert.Equal(t, "key:id_rsa", auth.Name())
	assert.Equal(t, []string{"id_ed25519", "id_rsa"}, calls.keys)

	auth, strategy, err = n.Next(state, allowed, "deploy")
	require.NoError(t, err)
	assert.Equal(t, StrategyUserPass, strategy)
	assert.Equal(t, &http.BasicAuth{Username: "u", Password: "p"}, auth)

	_, _, err = n.Next(state, allowed, "deploy")
	assert.ErrorIs(t, err, ErrAuthExhausted)
	assert.Equal(t, 4, state.Attempts)
	assert.Len(t, calls.agent, 1, "agent is only offered on the first attempt")
}

func TestNegotiatorFallsThroughWhenAgentUnavailable(t *testing.T) {
	sshDir := t.TempDir()
	writeKeyPair(t, sshDir, "id_ecdsa")
	// private key without a public half is ignored
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "id_rsa"), []byte("x"), 0600))

	calls := &stubCalls{}
	n := stubNegotiator(NewNegotiator(sshDir, nil, true), errors.New("SSH_AUTH_SOCK not set"), calls)
	state := NewNegotiationState()

	auth, strategy, err := n.Next(state, CredentialSSHKey, "git")
	require.NoError(t, err)
	assert.Equal(t, StrategySSHKeys, strategy)
	assert.Equal(t, "key:id_ecdsa", auth.Name())
	assert.Equal(t, []string{"id_ecdsa"}, calls.keys)

	_, _, err = n.Next(state, CredentialSSHKey, "git")
	assert.ErrorIs(t, err, ErrNoAuthMethod)
}

func TestNegotiatorExplicitKeyFirst(t *testing.T) {
	sshDir := t.TempDir()
	writeKeyPair(t, sshDir, "id_rsa")
	explicit := filepath.Join(t.TempDir(), "deploy_key")

	calls := &stubCalls{}
	n := stubNegotiator(NewNegotiator(sshDir, &vault.Credentials{SSHKeyPath: &explicit}, true), errors.New("no agent"), calls)

	auth, _, err := n.Next(NewNegotiationState(), CredentialSSHKey, "git")
	require.NoError(t, err)
	assert.Equal(t, "key:deploy_key", auth.Name())
}

func TestNegotiatorUserPassRequiresInline(t *testing.T) {
	n := NewNegotiator("", nil, false)
	state := NewNegotiationState()

	_, _, err := n.Next(state, CredentialUserPass, "")
	assert.ErrorIs(t, err, ErrNoAuthMethod)
	assert.True(t, state.Tried[StrategyUserPass])
}

func TestAllowedCredentials(t *testing.T) {
	tests := []struct {
		url      string
		expected CredentialType
	}{
		{"git@github.com:org/repo.git", CredentialSSHKey},
		{"ssh://git@example.com/repo.git", CredentialSSHKey},
		{"https://github.com/org/repo.git", CredentialUserPass},
		{"http://example.com/repo.git", CredentialUserPass},
		{"file:///tmp/repo", 0},
		{"/tmp/repo", 0},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			ep, err := transport.NewEndpoint(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, allowedCredentials(ep))
		})
	}
}

// rejectingRemote fails every clone with an authentication error and
// records the credential offered each time.
type rejectingRemote struct {
	offered []transport.AuthMethod
}

func (r *rejectingRemote) clone(_ context.Context, _ string, o *git.CloneOptions) error {
	r.offered = append(r.offered, o.Auth)
	return fmt.Errorf("%w: rejected", transport.ErrAuthorizationFailed)
}

func TestCloneNegotiationBound(t *testing.T) {
	sshDir := t.TempDir()
	writeKeyPair(t, sshDir, "id_rsa")

	d := newTestDriver(t)
	remote := &rejectingRemote{}
	d.clone = remote.clone
	d.credentialTypes = func(*transport.Endpoint) CredentialType { return CredentialSSHKey | CredentialUserPass }

	d.newNegotiator = func(inline *vault.Credentials) *Negotiator {
		return stubNegotiator(NewNegotiator(sshDir, inline, true), nil, &stubCalls{})
	}

	result, err := d.Clone(context.Background(), "ssh://git@example.com/repo.git", filepath.Join(t.TempDir(), "r"),
		&vault.Credentials{Username: "u", Password: "p"}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "authentication failed after multiple attempts")

	require.Len(t, remote.offered, 3, "exactly three credentials reach the remote")
	assert.Equal(t, "agent", remote.offered[0].Name())
	assert.Equal(t, "key:id_rsa", remote.offered[1].Name())
	assert.Equal(t, &http.BasicAuth{Username: "u", Password: "p"}, remote.offered[2])
}

func TestCloneSSHRemoteRejectingAllKeys(t *testing.T) {
	sshDir := t.TempDir()
	writeKeyPair(t, sshDir, "id_ecdsa")

	d := newTestDriver(t)
	remote := &rejectingRemote{}
	d.clone = remote.clone
	d.newNegotiator = func(inline *vault.Credentials) *Negotiator {
		return stubNegotiator(NewNegotiator(sshDir, inline, true), nil, &stubCalls{})
	}

	result, err := d.Clone(context.Background(), "git@example.com:org/repo.git", filepath.Join(t.TempDir(), "r"), nil, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no authentication method available")
	assert.Len(t, remote.offered, 2)
}

func TestCloneHTTPSAnonymousThenInline(t *testing.T) {
	d := newTestDriver(t)
	var offered []transport.AuthMethod
	d.clone = func(_ context.Context, _ string, o *git.CloneOptions) error {
		offered = append(offered, o.Auth)
		if o.Auth == nil {
			return transport.ErrAuthenticationRequired
		}
		return nil
	}

	result, err := d.Clone(context.Background(), "https://example.com/private.git", filepath.Join(t.TempDir(), "r"),
		&vault.Credentials{Username: "me", Password: "token"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success, result.Message)
	require.Len(t, offered, 2)
	assert.Nil(t, offered[0])
	assert.Equal(t, &http.BasicAuth{Username: "me", Password: "token"}, offered[1])
}

func TestCloneNonAuthFailureIsNotRetried(t *testing.T) {
	d := newTestDriver(t)
	calls := 0
	d.clone = func(context.Context, string, *git.CloneOptions) error {
		calls++
		return transport.ErrRepositoryNotFound
	}

	result, err := d.Clone(context.Background(), "https://example.com/missing.git", filepath.Join(t.TempDir(), "r"), nil, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "repository not found")
	assert.Equal(t, 1, calls)
}
