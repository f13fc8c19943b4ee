package domain

import "errors"

// Domain errors represent error conditions in the ringsock domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrOutOfRange is returned when a seek target names an entry or byte
	// offset that is not currently live.
	ErrOutOfRange = errors.New("ringsock: seek target out of range")

	// ErrMalformedSeek is returned when a SEEKTO record does not match
	// SEEKTO:<entry>,<offset>.
	ErrMalformedSeek = errors.New("ringsock: malformed seek command")

	// ErrEmptyEntry is returned when an entry would carry no bytes.
	ErrEmptyEntry = errors.New("ringsock: empty entry")

	// ErrRecordTooLarge is returned when a connection accumulates more
	// bytes than allowed without a delimiter.
	ErrRecordTooLarge = errors.New("ringsock: record too large")

	// ErrInterrupted is returned when waiting for exclusive access is
	// canceled before the lock was acquired.
	ErrInterrupted = errors.New("ringsock: exclusive access interrupted")

	// ErrClosed is returned when the store has already been released.
	ErrClosed = errors.New("ringsock: store closed")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("ringsock: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("ringsock: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("ringsock: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("ringsock: invalid configuration")
)
