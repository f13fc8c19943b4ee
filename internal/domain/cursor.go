package domain

import (
	"fmt"
	"strings"
)

// Cursor is a connection's read position.
// The zero value reads from the start of the stream.
type Cursor struct {
	// Set is true once a seek command has been resolved.
	Set bool

	// Offset is the flat offset replies start from, in the address space
	// of the configured reply source.
	Offset int64
}

// Start returns the offset a reply should begin at.
func (c Cursor) Start() int64 {
	if !c.Set {
		return 0
	}
	return c.Offset
}

// CursorMode controls whether a resolved seek outlives its first reply.
type CursorMode int

const (
	// CursorPersist keeps the cursor for every later reply on the connection.
	CursorPersist CursorMode = iota

	// CursorOnce clears the cursor after the first reply that used it.
	CursorOnce
)

// String returns the configuration name of the mode.
func (m CursorMode) String() string {
	switch m {
	case CursorPersist:
		return "persist"
	case CursorOnce:
		return "once"
	default:
		return "unknown"
	}
}

// ParseCursorMode parses "persist" or "once" (case-insensitive).
func ParseCursorMode(s string) (CursorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "persist", "":
		return CursorPersist, nil
	case "once":
		return CursorOnce, nil
	default:
		return CursorPersist, fmt.Errorf("%w: unknown cursor mode %q", ErrInvalidConfig, s)
	}
}

// ReplySource selects the address space replies are streamed from.
type ReplySource int

const (
	// ReplyFromRing streams the live entries of the ring.
	ReplyFromRing ReplySource = iota

	// ReplyFromJournal streams the whole journal, evicted records included.
	ReplyFromJournal
)

// String returns the configuration name of the source.
func (s ReplySource) String() string {
	switch s {
	case ReplyFromRing:
		return "ring"
	case ReplyFromJournal:
		return "journal"
	default:
		return "unknown"
	}
}

// ParseReplySource parses "ring" or "journal" (case-insensitive).
func ParseReplySource(s string) (ReplySource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ring", "":
		return ReplyFromRing, nil
	case "journal":
		return ReplyFromJournal, nil
	default:
		return ReplyFromRing, fmt.Errorf("%w: unknown reply source %q", ErrInvalidConfig, s)
	}
}
