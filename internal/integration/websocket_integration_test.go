//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"branchkit/internal/branch"
	"branchkit/internal/db"
	"branchkit/internal/git"
	"branchkit/internal/server"
	"branchkit/internal/service"
	"branchkit/internal/sysinfo"
	"branchkit/internal/testutil"
	"branchkit/internal/vault"
	"branchkit/internal/worker"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"github.com/zalando/go-keyring"
)

// WebSocketIntegrationTestSuite runs the API on a real listener and drives
// it over HTTP and WebSocket
type WebSocketIntegrationTestSuite struct {
	suite.Suite
	testDir string
	db      *db.DB
	baseURL string
	cancel  context.CancelFunc
	done    chan error
	remote  string
}

func (s *WebSocketIntegrationTestSuite) SetupSuite() {
	testDir, err := os.MkdirTemp("", "branchkit-ws-integration-*")
	s.Require().NoError(err)
	s.testDir = testDir

	keyring.MockInit()
	database, err := db.New(db.DefaultConfig(filepath.Join(testDir, "branchkit.db")))
	s.Require().NoError(err)
	s.db = database

	svc, err := service.New(context.Background(), service.Options{
		Driver:      git.NewDriver(git.DefaultOptions()),
		History:     db.NewHistoryRepository(database),
		Settings:    db.NewSettingsRepository(database),
		Credentials: vault.New(),
		Pool:        worker.NewPool(worker.DefaultPoolConfig()),
		System:      sysinfo.Info{Username: "jane", MachineName: "laptop", OSType: "linux"},
		Defaults:    branch.DefaultConfig(),
	})
	s.Require().NoError(err)

	cfg := server.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = s.freePort()
	srv := server.New(cfg, server.Dependencies{Service: svc, Credentials: vault.New(), Database: database})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- srv.Start(ctx) }()

	s.baseURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	s.waitForServer()

	s.remote = s.createTestRepository()
}

func (s *WebSocketIntegrationTestSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
		select {
		case err := <-s.done:
			s.NoError(err)
		case <-time.After(10 * time.Second):
			s.Fail("server did not shut down")
		}
	}
	if s.db != nil {
		s.db.Close()
	}
	if s.testDir != "" {
		os.RemoveAll(s.testDir)
	}
}

func (s *WebSocketIntegrationTestSuite) freePort() int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func (s *WebSocketIntegrationTestSuite) waitForServer() {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(s.baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	s.FailNow("server did not become healthy")
}

func (s *WebSocketIntegrationTestSuite) createTestRepository() string {
	path := testutil.InitRepo(s.T())
	testutil.CommitFile(s.T(), path, "README.md", "# Remote\n", "Initial commit")
	return path
}

func (s *WebSocketIntegrationTestSuite) postJSON(path string, body interface{}, out interface{}) int {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := http.Post(s.baseURL+path, "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	defer resp.Body.Close()
	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *WebSocketIntegrationTestSuite) dial(query string) *websocket.Conn {
	wsURL := "ws" + s.baseURL[len("http"):] + "/api/ws/clone"
	if query != "" {
		wsURL += "?" + query
	}
	header := http.Header{"Origin": []string{"http://localhost:3000"}}
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	s.Require().NoError(err)
	return ws
}

func (s *WebSocketIntegrationTestSuite) readFinal(ws *websocket.Conn) server.ServerMessage {
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(30 * time.Second)))
	for {
		var msg server.ServerMessage
		s.Require().NoError(ws.ReadJSON(&msg))
		if msg.Type != server.MessageProgress {
			return msg
		}
	}
}

// Test: Streamed clone followed by branch creation over HTTP
func (s *WebSocketIntegrationTestSuite) TestCloneThenCreateBranch() {
	dest := filepath.Join(s.testDir, "clone-then-branch")

	ws := s.dial(url.Values{"url": {s.remote}, "path": {dest}}.Encode())
	defer ws.Close()

	final := s.readFinal(ws)
	s.Require().Equal(server.MessageResult, final.Type)
	s.Require().NotNil(final.Result)
	s.True(final.Result.Success, final.Result.Message)
	s.FileExists(filepath.Join(dest, "README.md"))

	// The server closes the connection normally after the result
	_, _, err := ws.ReadMessage()
	s.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	var created service.CreateResult
	code := s.postJSON("/api/branches", server.CreateBranchRequest{
		Path: dest,
		CreateBranchRequest: service.CreateBranchRequest{
			Pattern:    branch.Pattern{Workspace: "remote", Username: "jane", Machine: "laptop", FeatureType: branch.Feature},
			AutoSwitch: true,
		},
	}, &created)
	s.Equal(http.StatusOK, code)
	s.True(created.Created, created.Message)
	s.Equal("remote/jane-laptop/feature", created.BranchName)

	resp, err := http.Get(s.baseURL + "/api/repos/status?path=" + url.QueryEscape(dest))
	s.Require().NoError(err)
	defer resp.Body.Close()
	var status git.Status
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	s.Equal(created.BranchName, status.CurrentBranch)
}

// Test: Clone request sent as the first message
func (s *WebSocketIntegrationTestSuite) TestCloneWithRequestMessage() {
	dest := filepath.Join(s.testDir, "clone-message")

	ws := s.dial("")
	defer ws.Close()
	s.Require().NoError(ws.WriteJSON(server.CloneRequest{URL: s.remote, Path: dest}))

	final := s.readFinal(ws)
	s.Require().Equal(server.MessageResult, final.Type)
	s.True(final.Result.Success, final.Result.Message)
}

// Test: Protocol validation
func (s *WebSocketIntegrationTestSuite) TestWebSocketProtocolValidation() {
	ws := s.dial(url.Values{"url": {"--upload-pack=touch"}, "path": {filepath.Join(s.testDir, "never")}}.Encode())
	defer ws.Close()

	final := s.readFinal(ws)
	s.Require().Equal(server.MessageError, final.Type)
	s.Require().NotNil(final.Error)
	s.NoDirExists(filepath.Join(s.testDir, "never"))

	// Cross-origin upgrades are refused
	wsURL := "ws" + s.baseURL[len("http"):] + "/api/ws/clone"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"http://evil.example.com"}})
	s.Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketIntegration(t *testing.T) {
	suite.Run(t, new(WebSocketIntegrationTestSuite))
}
