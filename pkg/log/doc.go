// Package log provides a logging abstraction for ringsock components.
//
// This package defines a Logger interface that can be implemented by
// any logging library. Default implementations are provided for zerolog
// and a no-op logger for testing.
//
// # Usage
//
// Use the provided zerolog adapter:
//
//	logger := log.NewZerologAdapter(log.Options{Level: "info", Format: "json"})
//
// Attach connection-scoped fields once and reuse the child:
//
//	connLog := log.With(logger, log.ConnID(id), log.Remote(addr))
//
// Or use the no-op logger for testing:
//
//	logger := log.NewNoopLogger()
//
// # Levels
//
// Loggers that implement Leveler can change their level at runtime. The
// zerolog adapter does; the config watcher plugin relies on it.
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package log
