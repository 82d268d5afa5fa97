package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/sparrow/internal/core/observability/log"
)

const (
	MethodSchema  = "registry.schema"
	MethodTypes   = "registry.types"
	MethodUpdated = "registry.updated"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Authoring tools connect from a local add-on without an Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Request is one websocket call from a tool.
type Request struct {
	ID     uint64 `json:"id,omitempty"`
	Method string `json:"method"`
}

// Response answers a Request, or notifies every client when ID is zero.
type Response struct {
	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
	once sync.Once
}

func (c *client) write(resp Response, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteJSON(resp)
}

func (c *client) close() {
	c.once.Do(func() { _ = c.conn.Close() })
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{conn: conn}
	s.clients.Store(conn, c)
	s.logger.Debug("tool connected", log.String("remote_addr", conn.RemoteAddr().String()))

	defer func() {
		s.clients.Delete(conn)
		c.close()
		s.logger.Debug("tool disconnected", log.String("remote_addr", conn.RemoteAddr().String()))
	}()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				_ = c.write(Response{Error: ErrInvalidMessage.Error()}, s.config.WriteTimeout)
				continue
			}
			return
		}
		if err := c.write(s.answer(req), s.config.WriteTimeout); err != nil {
			s.logger.Warn("websocket write failed", log.Error(err))
			return
		}
	}
}

func (s *Server) answer(req Request) Response {
	resp := Response{ID: req.ID, Method: req.Method}
	result, err := s.call(req.Method)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = result
	return resp
}

func (s *Server) call(method string) (json.RawMessage, error) {
	switch method {
	case MethodSchema:
		data, _, err := s.schema.Marshal()
		return data, err
	case MethodTypes:
		descs := s.types.Descriptors()
		paths := make([]string, 0, len(descs))
		for _, d := range descs {
			paths = append(paths, d.Path)
		}
		return json.Marshal(paths)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// BroadcastSchema pushes the current schema to every connected tool. It
// returns the number of clients reached.
func (s *Server) BroadcastSchema() (int, error) {
	data, _, err := s.schema.Marshal()
	if err != nil {
		return 0, err
	}
	msg := Response{Method: MethodUpdated, Result: data}
	sent := 0
	s.clients.Range(func(_, value any) bool {
		c := value.(*client)
		if err := c.write(msg, s.config.WriteTimeout); err != nil {
			s.logger.Warn("schema push failed", log.String("remote_addr", c.conn.RemoteAddr().String()), log.Error(err))
			c.close()
			return true
		}
		sent++
		return true
	})
	return sent, nil
}
