package ringsock

import (
	"context"

	"github.com/bft-labs/ringsock/pkg/log"
)

// Plugin extends a Ringsock instance. Plugins are initialized in
// registration order on Start and shut down in reverse order on Stop.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize starts the plugin. A returned error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin receives on Initialize.
type PluginConfig struct {
	// ConfigPath is the configuration file the instance was loaded from,
	// if any.
	ConfigPath string

	// Logger is the instance logger.
	Logger log.Logger

	// Settings applies runtime setting changes to the instance.
	Settings SettingsApplier
}

// Settings are the options that can change while the server runs.
// Empty fields are left unchanged.
type Settings struct {
	CursorMode string
	LogLevel   string
}

// SettingsApplier applies runtime setting changes.
type SettingsApplier interface {
	ApplySettings(s Settings) error
}
