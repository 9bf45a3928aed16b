// Package echo runs a loopback service that writes every received byte back
// to its sender. Both framings round-trip through it unchanged.
package echo

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Server echoes bytes on every accepted TCP connection.
type Server struct {
	ln    net.Listener
	mu    sync.Mutex
	conns map[net.Conn]struct{}
	// draining is set once shutdown has closed the tracked conns.
	draining bool
	active   atomic.Int64
}

// Listen binds addr. Use "127.0.0.1:0" for an ephemeral port.
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln, conns: make(map[net.Conn]struct{})}, nil
}

func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Active reports the number of connections currently being served.
func (s *Server) Active() int64 {
	return s.active.Load()
}

// Serve runs the accept loop until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	defer s.ln.Close()
	stop := context.AfterFunc(ctx, func() {
		s.closeAllConns()
		_ = s.ln.Close()
	})
	defer stop()

	log.Info().Str("addr", s.ln.Addr().String()).Msg("echo.Server.Serve listening")
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.trackConn(conn) {
			_ = conn.Close()
			continue
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting and drops every open connection.
func (s *Server) Close() error {
	s.closeAllConns()
	return s.ln.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)
	remote := conn.RemoteAddr().String()
	active := s.active.Add(1)
	log.Debug().Str("remote", remote).Int64("active_clients", active).Msg("echo.Server client connected")
	defer func() {
		remaining := s.active.Add(-1)
		log.Debug().Str("remote", remote).Int64("active_clients", remaining).Msg("echo.Server client disconnected")
	}()

	n, err := io.Copy(conn, conn)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debug().Str("remote", remote).Int64("bytes", n).Err(err).Msg("echo.Server copy ended")
	}
}

// trackConn registers conn unless shutdown already drained the set.
func (s *Server) trackConn(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeAllConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draining = true
	for conn := range s.conns {
		_ = conn.Close()
	}
}
