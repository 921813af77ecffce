package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"branchkit/internal/errors"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialClone(t *testing.T, env *testEnv, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/clone"
	if query != "" {
		wsURL += "?" + query
	}
	return websocket.DefaultDialer.Dial(wsURL, header)
}

// readUntilFinal collects frames until a result or error frame arrives.
func readUntilFinal(t *testing.T, ws *websocket.Conn) ([]ServerMessage, ServerMessage) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(10*time.Second)))

	var progress []ServerMessage
	for {
		var msg ServerMessage
		require.NoError(t, ws.ReadJSON(&msg))
		switch msg.Type {
		case MessageProgress:
			progress = append(progress, msg)
		case MessageResult, MessageError:
			return progress, msg
		default:
			t.Fatalf("unexpected message type %q", msg.Type)
		}
	}
}

func TestCloneWebSocketWithRequestMessage(t *testing.T) {
	env := newTestEnv(t)
	dest := filepath.Join(t.TempDir(), "clone")

	ws, _, err := dialClone(t, env, "", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(CloneRequest{URL: env.repo, Path: dest}))

	_, final := readUntilFinal(t, ws)
	require.Equal(t, MessageResult, final.Type)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Success, final.Result.Message)
	assert.Equal(t, dest, final.Result.Path)
	assert.DirExists(t, filepath.Join(dest, ".git"))
}

func TestCloneWebSocketWithQuery(t *testing.T) {
	env := newTestEnv(t)
	dest := filepath.Join(t.TempDir(), "clone")
	query := url.Values{"url": {env.repo}, "path": {dest}}.Encode()

	ws, _, err := dialClone(t, env, query, nil)
	require.NoError(t, err)
	defer ws.Close()

	_, final := readUntilFinal(t, ws)
	require.Equal(t, MessageResult, final.Type)
	assert.True(t, final.Result.Success, final.Result.Message)
}

func TestCloneWebSocketRejectsIncompleteRequest(t *testing.T) {
	env := newTestEnv(t)

	ws, _, err := dialClone(t, env, "", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(CloneRequest{URL: env.repo}))

	_, final := readUntilFinal(t, ws)
	require.Equal(t, MessageError, final.Type)
	require.NotNil(t, final.Error)
	assert.Equal(t, errors.ErrInvalidInput, final.Error.Code)
}

func TestCloneWebSocketFailedCloneIsResult(t *testing.T) {
	env := newTestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing")

	ws, _, err := dialClone(t, env, "", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(CloneRequest{URL: missing, Path: filepath.Join(t.TempDir(), "dest")}))

	_, final := readUntilFinal(t, ws)
	require.Equal(t, MessageResult, final.Type)
	assert.False(t, final.Result.Success)
}

func TestCloneWebSocketOriginCheck(t *testing.T) {
	env := newTestEnv(t)

	_, resp, err := dialClone(t, env, "", http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ws, _, err := dialClone(t, env, "", http.Header{"Origin": {"http://localhost:3000"}})
	require.NoError(t, err)
	ws.Close()
}
