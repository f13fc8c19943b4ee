// Package configwatcher reloads runtime settings of a ringsock server when
// its configuration file changes.
//
// Only cursor_mode and log_level are applied live. Every other key needs a
// restart and is ignored here.
package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/ringsock/pkg/log"
	"github.com/bft-labs/ringsock/pkg/ringsock"
)

// Plugin watches a TOML configuration file and applies the reloadable
// settings it contains.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	debounceDelay time.Duration

	// Runtime state
	watched  string
	logger   log.Logger
	settings ringsock.SettingsApplier
	last     ringsock.Settings
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path overrides the file to watch. When empty the file the server
	// was configured from is watched.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize records the current settings and starts watching the file.
func (p *Plugin) Initialize(ctx context.Context, cfg ringsock.PluginConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	path := p.path
	if path == "" {
		path = cfg.ConfigPath
	}
	if path == "" || cfg.Settings == nil {
		logger.Warn("config watcher disabled: no configuration file")
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("config watcher: watch %s: %w", filepath.Dir(abs), err)
	}

	p.mu.Lock()
	p.watched = abs
	p.logger = logger
	p.settings = cfg.Settings
	p.last, _ = readSettings(abs)
	p.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	logger.Info("config watcher started", log.String("path", abs))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the watcher and any pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != p.watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

// reload applies the settings that changed since the last reload.
func (p *Plugin) reload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, err := readSettings(p.watched)
	if err != nil {
		p.logger.Error("config reload failed", log.String("path", p.watched), log.Err(err))
		return
	}

	var diff ringsock.Settings
	if next.CursorMode != p.last.CursorMode {
		diff.CursorMode = next.CursorMode
	}
	if next.LogLevel != p.last.LogLevel {
		diff.LogLevel = next.LogLevel
	}
	if diff == (ringsock.Settings{}) {
		p.logger.Debug("config reload: nothing to apply")
		return
	}

	if err := p.settings.ApplySettings(diff); err != nil {
		p.logger.Error("config reload rejected", log.Err(err))
		return
	}
	p.last = next
}

type fileSettings struct {
	CursorMode string `toml:"cursor_mode"`
	LogLevel   string `toml:"log_level"`
}

func readSettings(path string) (ringsock.Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ringsock.Settings{}, err
	}
	var fs fileSettings
	if err := toml.Unmarshal(b, &fs); err != nil {
		return ringsock.Settings{}, err
	}
	return ringsock.Settings{CursorMode: fs.CursorMode, LogLevel: fs.LogLevel}, nil
}

var _ ringsock.Plugin = (*Plugin)(nil)
