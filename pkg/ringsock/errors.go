package ringsock

import "github.com/bft-labs/ringsock/internal/domain"

// Errors returned by the public API. Check them with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrClosed          = domain.ErrClosed
)
