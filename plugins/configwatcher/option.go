package configwatcher

import "github.com/bft-labs/ringsock/pkg/ringsock"

// WithConfigWatcher returns a ringsock Option that reloads cursor_mode and
// log_level whenever the configuration file changes.
//
// Usage:
//
//	srv, err := ringsock.New(cfg,
//	    ringsock.WithConfigFile(path),
//	    configwatcher.WithConfigWatcher(configwatcher.DefaultConfig()),
//	)
func WithConfigWatcher(cfg Config) ringsock.Option {
	return ringsock.WithPlugin(New(cfg))
}
