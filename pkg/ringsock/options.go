package ringsock

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/ringsock/internal/ports"
	"github.com/bft-labs/ringsock/pkg/log"
)

// Logger is the structured logging interface from pkg/log.
type Logger = log.Logger

// LogField is a structured log field from pkg/log.
type LogField = log.Field

// Journal is the backing sequential store every committed record is
// appended to. Supply one with WithJournal to bypass JournalKind.
type Journal = ports.Journal

// Option configures optional behavior of Ringsock.
type Option func(*options)

type options struct {
	logger       log.Logger
	eventHandler EventHandler
	plugins      []Plugin
	configPath   string
	journal      ports.Journal
	registry     *prometheus.Registry
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets the logger. Without it nothing is logged.
// Loggers implementing log.Leveler can have their level changed by
// ApplySettings.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for Ringsock events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when Ringsock starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithConfigFile records the configuration file path handed to plugins.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithJournal uses j instead of opening the configured journal kind.
// Ringsock closes j on Stop.
func WithJournal(j Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithMetricsRegistry registers metrics with reg instead of a private registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}
