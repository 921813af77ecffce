package server

import (
	"net/http"
	"strings"
	"sync"

	"branchkit/internal/errors"
	"branchkit/internal/git"
	"branchkit/internal/logger"
	"branchkit/internal/validation"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// CLI tools send no origin
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
			"http://[::1]",
			"https://[::1]",
		}
		for _, allowed := range allowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return true
			}
		}

		logger.WithFields(logger.Fields{
			"origin": origin,
			"remote": r.RemoteAddr,
		}).Warn("WebSocket connection rejected - invalid origin")
		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message types sent on the clone socket
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// ServerMessage is one frame sent to the client during a clone
type ServerMessage struct {
	Type   string            `json:"type"`
	Data   string            `json:"data,omitempty"`
	Result *git.CloneResult  `json:"result,omitempty"`
	Error  *errors.ErrorInfo `json:"error,omitempty"`
}

// progressWriter forwards clone progress to the socket
type progressWriter struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (w *progressWriter) Write(p []byte) (int, error) {
	if err := w.send(ServerMessage{Type: MessageProgress, Data: string(p)}); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *progressWriter) send(msg ServerMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ws.WriteJSON(msg)
}

// handleCloneWebSocket streams a clone's progress over a WebSocket
// @Summary Clone with streamed progress
// @Description Upgrade, then send a CloneRequest as the first message. Query parameters url and path are used when the message omits them.
// @Tags repositories,websocket
// @Param url query string false "Remote URL"
// @Param path query string false "Destination path"
// @Success 101 {string} string "Switching Protocols"
// @Router /ws/clone [get]
func (s *Server) handleCloneWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return err
	}
	defer ws.Close()

	out := &progressWriter{ws: ws}
	log := logger.GetLogger(c)

	req := CloneRequest{
		URL:  c.QueryParam("url"),
		Path: c.QueryParam("path"),
	}
	if req.URL == "" || req.Path == "" {
		var msg CloneRequest
		if err := ws.ReadJSON(&msg); err != nil {
			return out.fail(errors.New(errors.ErrInvalidInput, "Expected a clone request message"))
		}
		if msg.URL != "" {
			req.URL = msg.URL
		}
		if msg.Path != "" {
			req.Path = msg.Path
		}
		req.Credentials = msg.Credentials
	}
	if err := validation.RemoteURL(req.URL); err != nil {
		return out.fail(err)
	}
	if err := requirePath(req.Path); err != nil {
		return out.fail(err)
	}

	log.WithFields(logger.Fields{"url": req.URL, "path": req.Path}).Info("Starting streamed clone")

	result, err := s.svc.CloneRepository(c.Request().Context(), req.URL, req.Path, req.Credentials, out)
	if err != nil {
		return out.fail(classify(err, req.Path))
	}
	if err := out.send(ServerMessage{Type: MessageResult, Result: &result}); err != nil {
		log.WithError(err).Debug("Client went away before the clone result was sent")
	}
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return nil
}

// fail reports err to the client. The upgrade has already written the
// response, so the error is not returned to echo.
func (w *progressWriter) fail(err error) error {
	info := errors.ErrorInfo{Code: errors.ErrInternal, Message: err.Error()}
	if be, ok := errors.As(err); ok {
		info = errors.ErrorInfo{Code: be.Code, Message: be.Message, Details: be.Details}
	}
	if sendErr := w.send(ServerMessage{Type: MessageError, Error: &info}); sendErr != nil {
		logger.WithError(sendErr).Debug("Failed to send clone error")
	}
	return nil
}
