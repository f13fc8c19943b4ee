// Package ringsock runs a TCP server over a fixed-capacity ring of records.
//
// Example usage:
//
//	cfg := ringsock.DefaultConfig()
//	cfg.ListenAddr = ":9000"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := ringsock.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// For finer control over the lifecycle, use pkg/ringsock directly.
package ringsock

import (
	"context"
	"errors"

	"github.com/bft-labs/ringsock/pkg/ringsock"
)

// Config holds the configuration for the ring server.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = ringsock.Config

// Option configures optional behavior, see pkg/ringsock.
type Option = ringsock.Option

// Run starts the server and blocks until ctx is canceled or the server
// fails, then shuts it down.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	srv, err := ringsock.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		err := srv.Stop()
		if !errors.Is(err, ringsock.ErrNotRunning) {
			return err
		}
	case <-srv.Done():
	}
	// The run ended on its own and has already released everything.
	<-srv.Done()
	return srv.Err()
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return ringsock.DefaultConfig()
}

// DefaultListenAddr is the default TCP listen address.
const DefaultListenAddr = ringsock.DefaultListenAddr
