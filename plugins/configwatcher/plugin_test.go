package configwatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/ringsock/pkg/log"
	"github.com/bft-labs/ringsock/pkg/ringsock"
)

type recordingApplier struct {
	mu      sync.Mutex
	applied []ringsock.Settings
	err     error
}

func (r *recordingApplier) ApplySettings(s ringsock.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.applied = append(r.applied, s)
	return nil
}

func (r *recordingApplier) calls() []ringsock.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ringsock.Settings(nil), r.applied...)
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func startPlugin(t *testing.T, path string, applier ringsock.SettingsApplier) *Plugin {
	t.Helper()
	p := New(Config{DebounceDelay: 10 * time.Millisecond})
	require.NoError(t, p.Initialize(context.Background(), ringsock.PluginConfig{
		ConfigPath: path,
		Logger:     log.NewNoopLogger(),
		Settings:   applier,
	}))
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

func TestPlugin_AppliesChangedSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "capacity = 10\ncursor_mode = \"persist\"\nlog_level = \"info\"\n")

	applier := &recordingApplier{}
	startPlugin(t, path, applier)

	writeConfig(t, path, "capacity = 10\ncursor_mode = \"once\"\nlog_level = \"info\"\n")

	require.Eventually(t, func() bool { return len(applier.calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, ringsock.Settings{CursorMode: "once"}, applier.calls()[0])

	writeConfig(t, path, "capacity = 10\ncursor_mode = \"once\"\nlog_level = \"debug\"\n")

	require.Eventually(t, func() bool { return len(applier.calls()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, ringsock.Settings{LogLevel: "debug"}, applier.calls()[1])
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeConfig(t, path, "cursor_mode = \"persist\"\n")

	applier := &recordingApplier{}
	startPlugin(t, path, applier)

	writeConfig(t, filepath.Join(dir, "other.toml"), "cursor_mode = \"once\"\n")

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, applier.calls())
}

func TestPlugin_InvalidFileKeepsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "cursor_mode = \"persist\"\n")

	applier := &recordingApplier{}
	p := startPlugin(t, path, applier)

	writeConfig(t, path, "cursor_mode = \n")
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, applier.calls())

	writeConfig(t, path, "cursor_mode = \"once\"\n")
	require.Eventually(t, func() bool { return len(applier.calls()) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPlugin_RejectedSettingsAreRetried(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "cursor_mode = \"persist\"\n")

	applier := &recordingApplier{err: errors.New("rejected")}
	startPlugin(t, path, applier)

	writeConfig(t, path, "cursor_mode = \"once\"\n")
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, applier.calls())

	applier.mu.Lock()
	applier.err = nil
	applier.mu.Unlock()

	// Same content again: the rejected change is still pending.
	writeConfig(t, path, "cursor_mode = \"once\"\n")
	require.Eventually(t, func() bool { return len(applier.calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "once", applier.calls()[0].CursorMode)
}

func TestPlugin_DisabledWithoutConfigPath(t *testing.T) {
	p := New(DefaultConfig())
	require.NoError(t, p.Initialize(context.Background(), ringsock.PluginConfig{
		Logger:   log.NewNoopLogger(),
		Settings: &recordingApplier{},
	}))
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPlugin_MissingDirectory(t *testing.T) {
	p := New(Config{Path: filepath.Join(t.TempDir(), "missing", "config.toml")})
	err := p.Initialize(context.Background(), ringsock.PluginConfig{
		Logger:   log.NewNoopLogger(),
		Settings: &recordingApplier{},
	})
	require.Error(t, err)
}

func TestPlugin_ShutdownWithoutInitialize(t *testing.T) {
	assert.NoError(t, New(DefaultConfig()).Shutdown(context.Background()))
}

func TestWithConfigWatcher_RunsWithServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, "cursor_mode = \"persist\"\n")

	cfg := ringsock.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.JournalKind = ringsock.JournalNone

	srv, err := ringsock.New(cfg,
		ringsock.WithConfigFile(path),
		WithConfigWatcher(Config{DebounceDelay: 10 * time.Millisecond}),
	)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer func() { _ = srv.Stop() }()

	writeConfig(t, path, "cursor_mode = \"once\"\n")
	require.Eventually(t, func() bool { return srv.CursorMode() == "once" }, 2*time.Second, 10*time.Millisecond)
}
