// Package server exposes the type registry to authoring tools over HTTP and
// websocket, next to the prometheus endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/schema/export"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

// SchemaSource renders the schema document.
type SchemaSource interface {
	Marshal() ([]byte, *export.Document, error)
}

// TypeSource lists the registered types.
type TypeSource interface {
	Descriptors() []*registry.Descriptor
}

type Config struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
	WriteTimeout    time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:15702",
		ShutdownTimeout: 5 * time.Second,
		WriteTimeout:    10 * time.Second,
	}
}

type Server struct {
	config  Config
	schema  SchemaSource
	types   TypeSource
	metrics http.Handler
	logger  log.Log

	httpServer *http.Server
	listener   net.Listener

	clients sync.Map // map[*websocket.Conn]*client

	running int32 // atomic bool
	closed  int32 // atomic bool
	wg      sync.WaitGroup
}

// New creates a server. metrics may be nil, in which case /metrics is not
// served.
func New(config Config, schema SchemaSource, types TypeSource, metrics http.Handler, logger log.Log) *Server {
	s := &Server{
		config:  config,
		schema:  schema,
		types:   types,
		metrics: metrics,
		logger:  logger.With(log.String("component", "server")),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return fmt.Errorf("%w: %v", ErrListenerFailed, err)
	}
	s.listener = ln
	s.logger.Info("server listening", log.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve", log.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down and closes every websocket client.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	atomic.StoreInt32(&s.closed, 1)

	s.clients.Range(func(key, value any) bool {
		value.(*client).close()
		return true
	})

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	s.logger.Info("server stopped")
	return err
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	n := 0
	s.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
