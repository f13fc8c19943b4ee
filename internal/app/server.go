package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/metrics"
	"github.com/bft-labs/ringsock/pkg/lifecycle"
	"github.com/bft-labs/ringsock/pkg/log"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":9000"

// ServerConfig contains configuration for the accept loop.
type ServerConfig struct {
	Addr    string
	Session SessionConfig
}

// ConnectionObserver is notified when connections open and close.
type ConnectionObserver interface {
	OnConnectionOpened(id string, remote net.Addr)
	OnConnectionClosed(id string, stats SessionStats, err error)
}

// Server accepts client connections and runs one Session per connection.
type Server struct {
	cfg      ServerConfig
	coord    *Coordinator
	logger   log.Logger
	metrics  *metrics.Metrics
	workers  lifecycle.Manager
	observer ConnectionObserver
	registry *Registry

	mu        sync.Mutex
	ln        net.Listener
	cancel    context.CancelFunc
	serveDone chan struct{}
	stopping  bool

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewServer creates a server. workers counts connection goroutines; a nil
// manager gets a private one. observer may be nil.
func NewServer(cfg ServerConfig, coord *Coordinator, workers lifecycle.Manager, observer ConnectionObserver, logger log.Logger, m *metrics.Metrics) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if workers == nil {
		workers = lifecycle.NewManager(logger, nil)
	}
	return &Server{
		cfg:      cfg,
		coord:    coord,
		logger:   logger,
		metrics:  m,
		workers:  workers,
		observer: observer,
		registry: NewRegistry(),
	}
}

// Listen binds the listening socket with SO_REUSEADDR.
func (s *Server) Listen(ctx context.Context) error {
	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		_ = ln.Close()
		return domain.ErrClosed
	}
	s.ln = ln
	s.logger.Info("listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until ctx is canceled or Shutdown is called.
// Temporary accept failures are retried with backoff.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.ln == nil {
		s.mu.Unlock()
		return errors.New("serve: not listening")
	}
	if s.stopping || s.serveDone != nil {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	ln := s.ln
	s.cancel = cancel
	s.serveDone = make(chan struct{})
	done := s.serveDone
	s.mu.Unlock()
	defer close(done)

	// Unblock Accept on cancellation.
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	backoff := lifecycle.NewBackoff(5*time.Millisecond, time.Second)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("accept failed", log.Err(err), log.Duration("retry_in", backoff.Current()))
			if werr := backoff.Wait(ctx); werr != nil {
				return nil
			}
			continue
		}
		backoff.Reset()

		if n := s.registry.Reap(); n > 0 {
			s.logger.Debug("reaped finished connections", log.Int("count", n))
		}
		s.startSession(ctx, conn)
	}
}

func (s *Server) startSession(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()

	s.workers.AddWorker()
	finish, ok := s.registry.Add(id, conn)
	if !ok {
		s.workers.WorkerDone()
		_ = conn.Close()
		return
	}

	s.metrics.ConnectionOpened()
	connLog := log.With(s.logger, log.ConnID(id), log.Remote(conn.RemoteAddr()))
	connLog.Info("connection accepted")
	if s.observer != nil {
		s.observer.OnConnectionOpened(id, conn.RemoteAddr())
	}

	go func() {
		defer s.workers.WorkerDone()
		defer finish()
		defer conn.Close()

		sess := NewSession(conn, s.coord, s.cfg.Session, connLog, s.metrics)
		err := sess.Serve(ctx)
		stats := sess.Stats()

		s.metrics.ConnectionClosed()
		fields := []log.Field{
			log.Bytes("received", stats.BytesReceived),
			log.Bytes("sent", stats.BytesSent),
			log.Int("records", stats.Records),
			log.Int("seeks", stats.Seeks),
		}
		if err != nil {
			connLog.Warn("connection failed", append(fields, log.Err(err))...)
		} else {
			connLog.Info("connection closed", fields...)
		}
		if s.observer != nil {
			s.observer.OnConnectionClosed(id, stats, err)
		}
	}()
}

// Shutdown stops accepting, force-closes every open connection, waits up
// to timeout for connection goroutines, and releases the store. Only the
// first call does the work; later calls return its result.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.shutdown(timeout)
	})
	return s.shutdownErr
}

func (s *Server) shutdown(timeout time.Duration) error {
	s.mu.Lock()
	s.stopping = true
	ln, cancel, serveDone := s.ln, s.cancel, s.serveDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ln != nil {
		_ = ln.Close()
	}
	if serveDone != nil {
		<-serveDone
	}

	closed := s.registry.CloseAll()

	var errs []error
	if err := s.workers.WaitWithTimeout(timeout); err != nil {
		errs = append(errs, fmt.Errorf("%w: %d connections still open", domain.ErrShutdownTimeout, s.workers.Workers()))
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), timeout)
	defer cancelClose()
	if err := s.coord.Close(closeCtx); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("server stopped", log.Int("connections_closed", closed))
	return errors.Join(errs...)
}
