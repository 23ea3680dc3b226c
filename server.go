package blizzard

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// SessionHandler is called for each accepted connection, with a Session
// already built for it (non-instigator side). The implementation owns the
// session's lifetime: it should call Run and typically Expose methods
// beforehand.
type SessionHandler func(session *Session)

// Server accepts TCP connections and hands each to a SessionHandler as a
// non-instigator Session (spec §1: the transport itself is out of the
// core's scope; this is the external collaborator the spec assumes).
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	shutdownTimeout time.Duration
	sessionOpts     []Option

	mu          sync.Mutex
	shutdown    bool
	shutdownNow chan struct{}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption sets the graceful shutdown timeout. When the
// context is canceled, the server waits up to this duration before it
// stops accepting connections, giving in-flight sessions time to finish. Default
// is 0 (immediate shutdown). Call Close() to bypass the remaining
// timeout.
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// ServerSessionOptions sets the Options applied to every Session the
// server builds for an accepted connection.
func ServerSessionOptions(opts ...Option) ServerOption {
	return func(s *Server) {
		s.sessionOpts = opts
	}
}

// New creates a new TCP server bound to addr.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:    listener,
		logger:      slog.Default(),
		shutdownNow: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts connections and dispatches a non-instigator Session for
// each to handler. It blocks until ctx is canceled or an unrecoverable
// error occurs.
func (s *Server) Serve(ctx context.Context, handler SessionHandler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	go func() {
		<-ctx.Done()

		if s.shutdownTimeout > 0 {
			s.logger.Info("graceful shutdown initiated", "timeout", s.shutdownTimeout)
			select {
			case <-time.After(s.shutdownTimeout):
			case <-s.shutdownNow:
				s.logger.Debug("shutdown timeout bypassed via Close()")
			}
		}

		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		_ = s.listener.SetDeadline(time.Now())
	}()

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)

		opts := append([]Option{WithLogger(s.logger)}, s.sessionOpts...)
		session := NewSession(conn, false, opts...)
		go handler(session)
	}
}

// Close stops the server by closing the underlying listener, bypassing
// any pending shutdown timeout. Any blocked Accept calls return with an
// error.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	select {
	case s.shutdownNow <- struct{}{}:
	default:
	}

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
