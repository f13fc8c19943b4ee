package ringsock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/ringsock/internal/adapters/discard"
	"github.com/bft-labs/ringsock/internal/adapters/fs"
	"github.com/bft-labs/ringsock/internal/adapters/pebble"
	"github.com/bft-labs/ringsock/internal/app"
	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/metrics"
	"github.com/bft-labs/ringsock/internal/ports"
	"github.com/bft-labs/ringsock/internal/ring"
	"github.com/bft-labs/ringsock/pkg/lifecycle"
	"github.com/bft-labs/ringsock/pkg/log"
)

// Ringsock is a ring buffer record server that can be embedded in other
// applications. Use New() to create an instance, then Start() to listen.
type Ringsock struct {
	config    Config
	opts      options
	lifecycle *lifecycle.DefaultManager
	logger    log.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics

	cursorMode atomic.Int32
	source     domain.ReplySource

	mu       sync.Mutex
	server   *app.Server
	cancel   context.CancelFunc
	done     chan struct{}
	runErr   error
	teardown *sync.Once
	stopErr  error
}

// New creates a Ringsock instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin serving.
// Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Ringsock, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Both parse: Validate passed.
	mode, _ := domain.ParseCursorMode(cfg.CursorMode)
	source, _ := domain.ParseReplySource(cfg.ReplySource)

	reg := o.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := &Ringsock{
		config:   cfg,
		opts:     o,
		logger:   o.logger,
		registry: reg,
		metrics:  metrics.New(reg),
		source:   source,
	}
	r.cursorMode.Store(int32(mode))
	r.lifecycle = lifecycle.NewManager(o.logger, &eventEmitterWrapper{handler: o.eventHandler})
	return r, nil
}

// Start opens the journal, restores the ring from it, binds the listener
// and begins accepting connections in the background. It returns once the
// listener is bound. Canceling ctx later shuts the server down the way
// Stop does.
func (r *Ringsock) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := r.lifecycle.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	fail := func(reason string, err error) error {
		cancel()
		r.logger.Error("start failed", log.String("stage", reason), log.Err(err))
		_ = r.lifecycle.TransitionTo(lifecycle.StateCrashed, reason)
		return err
	}

	journal, err := r.openJournal()
	if err != nil {
		return fail("journal open failed", err)
	}

	coord := app.NewCoordinator(ring.New(r.config.Capacity), journal, r.source, r.logger, r.metrics)
	if _, err := coord.Restore(runCtx); err != nil {
		_ = coord.Close(context.Background())
		return fail("journal restore failed", err)
	}

	server := app.NewServer(app.ServerConfig{
		Addr: r.config.ListenAddr,
		Session: app.SessionConfig{
			ReadBufferBytes: r.config.ReadBufferBytes,
			MaxRecordBytes:  r.config.MaxRecordBytes,
			WriteTimeout:    r.config.WriteTimeout,
			CursorMode:      r.currentCursorMode,
		},
	}, coord, r.lifecycle, &eventEmitterWrapper{handler: r.opts.eventHandler}, r.logger, r.metrics)

	if err := server.Listen(runCtx); err != nil {
		_ = coord.Close(context.Background())
		return fail("listen failed", err)
	}

	var metricsLn net.Listener
	if r.config.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", r.config.MetricsAddr)
		if err != nil {
			_ = server.Shutdown(r.config.ShutdownTimeout)
			return fail("metrics listen failed", err)
		}
		r.logger.Info("metrics endpoint listening", log.String("addr", metricsLn.Addr().String()))
	}

	pluginCfg := PluginConfig{
		ConfigPath: r.opts.configPath,
		Logger:     r.logger,
		Settings:   r,
	}
	for i, p := range r.opts.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			r.shutdownPlugins(r.opts.plugins[:i])
			if metricsLn != nil {
				_ = metricsLn.Close()
			}
			_ = server.Shutdown(r.config.ShutdownTimeout)
			return fail("plugin init failed: "+p.Name(), err)
		}
		r.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	r.server = server
	r.cancel = cancel
	r.done = make(chan struct{})
	r.runErr = nil
	r.teardown = &sync.Once{}
	r.stopErr = nil
	r.lifecycle.SetCancel(cancel)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return server.Serve(gctx) })
	if metricsLn != nil {
		g.Go(func() error { return metrics.Serve(gctx, metricsLn, r.registry) })
	}

	if err := r.lifecycle.TransitionTo(lifecycle.StateRunning, "listening on "+server.Addr().String()); err != nil {
		cancel()
		return err
	}

	done := r.done
	go func() {
		defer close(done)
		err := g.Wait()

		// Stop already moved the state on; it owns the teardown.
		r.mu.Lock()
		if r.lifecycle.State() != lifecycle.StateRunning {
			r.mu.Unlock()
			return
		}
		reason := "context canceled"
		if err != nil {
			r.logger.Error("server failed", log.Err(err))
			r.runErr = err
			reason = "server failed"
		}
		terr := r.lifecycle.TransitionTo(lifecycle.StateStopping, reason)
		r.mu.Unlock()
		if terr != nil {
			return
		}

		relErr := r.release(false)
		switch {
		case err != nil:
			_ = r.lifecycle.TransitionTo(lifecycle.StateCrashed, err.Error())
		case relErr != nil:
			r.mu.Lock()
			r.runErr = relErr
			r.mu.Unlock()
			_ = r.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown failed")
		default:
			_ = r.lifecycle.TransitionTo(lifecycle.StateStopped, reason)
		}
	}()

	return nil
}

// Stop stops accepting connections, closes every open connection, waits
// up to ShutdownTimeout for connection goroutines, releases the store and
// journal, and shuts plugins down in reverse order.
// Returns ErrShutdownTimeout if connections did not finish in time.
func (r *Ringsock) Stop() error {
	r.mu.Lock()
	if !r.lifecycle.CanStop() {
		r.mu.Unlock()
		return ErrNotRunning
	}
	if err := r.lifecycle.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	err := r.release(true)

	if err != nil {
		_ = r.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown failed")
	} else {
		_ = r.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
	}
	return err
}

// release runs the shutdown sequence once per Start. waitRun is false when
// called from the run goroutine itself.
func (r *Ringsock) release(waitRun bool) error {
	r.mu.Lock()
	server, cancel, done, teardown := r.server, r.cancel, r.done, r.teardown
	r.mu.Unlock()
	if teardown == nil {
		return nil
	}

	teardown.Do(func() {
		start := time.Now()
		if cancel != nil {
			cancel()
		}
		var errs []error
		if server != nil {
			if err := server.Shutdown(r.config.ShutdownTimeout); err != nil {
				errs = append(errs, err)
			}
		}
		if waitRun && done != nil {
			select {
			case <-done:
			case <-time.After(r.config.ShutdownTimeout):
			}
		}
		r.shutdownPlugins(r.opts.plugins)

		r.stopErr = errors.Join(errs...)
		r.logger.Info("shutdown complete", log.Duration("took", time.Since(start)))
	})
	return r.stopErr
}

func (r *Ringsock) shutdownPlugins(plugins []Plugin) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
	defer cancel()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			r.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			r.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Ringsock) Status() State {
	return State(r.lifecycle.State())
}

// Addr returns the bound listen address, or nil when not started.
func (r *Ringsock) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.server == nil {
		return nil
	}
	return r.server.Addr()
}

// Done is closed when the current run has ended, whether by Stop, by
// cancellation of the Start context, or by failure. After a cancellation
// or failure it is closed only once connections and the journal have been
// released. It is nil before the first Start.
func (r *Ringsock) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Err returns the error that crashed the last run, if any.
func (r *Ringsock) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runErr
}

// Registry returns the Prometheus registry the instance reports to.
func (r *Ringsock) Registry() *prometheus.Registry {
	return r.registry
}

// ApplySettings changes runtime settings. Cursor mode changes apply to the
// next reply of every connection. A log level change needs a logger that
// implements log.Leveler.
func (r *Ringsock) ApplySettings(s Settings) error {
	var errs []error

	if s.CursorMode != "" {
		mode, err := domain.ParseCursorMode(s.CursorMode)
		if err != nil {
			errs = append(errs, err)
		} else if prev := domain.CursorMode(r.cursorMode.Swap(int32(mode))); prev != mode {
			r.logger.Info("cursor mode changed",
				log.String("from", prev.String()),
				log.String("to", mode.String()))
		}
	}

	if s.LogLevel != "" {
		if lv, ok := r.logger.(log.Leveler); ok {
			if err := lv.SetLevel(s.LogLevel); err != nil {
				errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
			} else {
				r.logger.Info("log level changed", log.String("level", s.LogLevel))
			}
		} else {
			r.logger.Warn("log level change ignored: logger has no runtime level")
		}
	}

	return errors.Join(errs...)
}

// CursorMode returns the cursor mode currently in effect.
func (r *Ringsock) CursorMode() string {
	return r.currentCursorMode().String()
}

func (r *Ringsock) currentCursorMode() domain.CursorMode {
	return domain.CursorMode(r.cursorMode.Load())
}

func (r *Ringsock) openJournal() (ports.Journal, error) {
	if r.opts.journal != nil {
		return r.opts.journal, nil
	}
	switch r.config.JournalKind {
	case JournalPebble:
		j, err := pebble.Open(r.config.JournalPath, pebble.Options{
			Sync: r.config.JournalSync,
			Keep: r.config.KeepJournal,
		})
		if err != nil {
			return nil, err
		}
		return j, nil
	case JournalNone:
		return discard.New(), nil
	default:
		j, err := fs.OpenFileJournal(r.config.JournalPath, fs.FileJournalOptions{
			Sync: r.config.JournalSync,
			Keep: r.config.KeepJournal,
		})
		if err != nil {
			return nil, err
		}
		return j, nil
	}
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnConnectionOpened(id string, remote net.Addr) {
	if e.handler == nil {
		return
	}
	ev := ConnectionEvent{ID: id}
	if remote != nil {
		ev.Remote = remote.String()
	}
	e.handler.OnConnectionOpened(ev)
}

func (e *eventEmitterWrapper) OnConnectionClosed(id string, stats app.SessionStats, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnConnectionClosed(ConnectionClosedEvent{
		ID:            id,
		BytesReceived: stats.BytesReceived,
		BytesSent:     stats.BytesSent,
		Records:       stats.Records,
		Seeks:         stats.Seeks,
		Err:           err,
		ClosedAt:      time.Now(),
	})
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"log":       {log.Version, log.MinCompatibleVersion},
		"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}

	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic versioning.
// Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
