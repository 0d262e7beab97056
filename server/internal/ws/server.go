package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Lifecycle errors.
var (
	ErrAlreadyRunning = errors.New("ws: server already running")
	ErrNotRunning     = errors.New("ws: server not running")
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultAddr             = "localhost:8765"
	DefaultPollInterval     = time.Second
	DefaultWriteTimeout     = time.Second
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultHandshakeBuffer  = 1024
	DefaultPeriod           = time.Second / 24
)

// Config holds the listener and timing settings for a Server.
type Config struct {
	// Addr is the TCP listen address (host:port).
	Addr string

	// PollInterval bounds every Accept and session Read so that Stop is
	// observed within one interval.
	PollInterval time.Duration

	// WriteTimeout is the deadline for one broadcast write to one client.
	WriteTimeout time.Duration

	// HandshakeTimeout bounds the wait for the opening request.
	HandshakeTimeout time.Duration

	// HandshakeBufferSize caps the bytes read for the opening request.
	HandshakeBufferSize int

	// DefaultPeriod is used when the producer reports a non-positive period.
	DefaultPeriod time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.HandshakeBufferSize <= 0 {
		c.HandshakeBufferSize = DefaultHandshakeBuffer
	}
	if c.DefaultPeriod <= 0 {
		c.DefaultPeriod = DefaultPeriod
	}
	return c
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithObserver routes connection and broadcast events to o.
func WithObserver(o Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// Server is a broadcast-only WebSocket server with an explicit
// Stopped/Running lifecycle. Start, Stop and ClientCount are safe to call
// from any goroutine. Each Server is independent.
type Server struct {
	cfg      Config
	producer Producer
	observer Observer

	mu sync.Mutex
	rt *runtime // nil while stopped
}

// runtime is everything owned by one Running period.
type runtime struct {
	ln       net.Listener
	reg      *Registry
	cancel   context.CancelFunc
	group    *errgroup.Group
	sessions sync.WaitGroup
}

// New creates a stopped Server that broadcasts snapshots from p.
func New(cfg Config, p Producer, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg.withDefaults(),
		producer: p,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and starts the accept and broadcast loops. A bind
// failure is returned and the server stays stopped. Start on a running
// server returns ErrAlreadyRunning and changes nothing.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rt != nil {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("ws: listen %s: %w", s.cfg.Addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	rt := &runtime{
		ln:     ln,
		reg:    NewRegistry(),
		cancel: cancel,
		group:  g,
	}

	g.Go(func() error { return s.acceptLoop(gctx, rt) })
	g.Go(func() error { return s.broadcastLoop(gctx, rt) })

	s.rt = rt
	slog.Info("ws: server listening", "addr", ln.Addr().String())
	return nil
}

// Stop signals shutdown, closes every client and the listener, and waits for
// the accept loop, the broadcast loop and all sessions to exit. Stop on a
// stopped server returns ErrNotRunning. Close errors are ignored.
func (s *Server) Stop() error {
	s.mu.Lock()
	rt := s.rt
	if rt == nil {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.rt = nil

	rt.cancel()
	rt.reg.CloseAll()
	rt.ln.Close() //nolint:errcheck
	s.mu.Unlock()

	if err := rt.group.Wait(); err != nil {
		slog.Warn("ws: loop exited with error", "err", err)
	}
	rt.sessions.Wait()

	slog.Info("ws: server stopped")
	return nil
}

// ClientCount returns the number of registered clients, or 0 when stopped.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt == nil {
		return 0
	}
	return s.rt.reg.Count()
}

// Running reports whether the server is in the Running state.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rt != nil
}

// Addr returns the bound listener address, or nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt == nil {
		return nil
	}
	return s.rt.ln.Addr()
}
