package ringsock

import (
	"fmt"
	"time"

	"github.com/bft-labs/ringsock/internal/adapters/fs"
	"github.com/bft-labs/ringsock/internal/app"
	"github.com/bft-labs/ringsock/internal/domain"
	"github.com/bft-labs/ringsock/internal/ring"
	"github.com/bft-labs/ringsock/pkg/lifecycle"
)

// Journal kinds.
const (
	JournalFile   = "file"
	JournalPebble = "pebble"
	JournalNone   = "none"
)

// Defaults applied by SetDefaults.
const (
	DefaultListenAddr      = app.DefaultAddr
	DefaultCapacity        = ring.DefaultCapacity
	DefaultReadBufferBytes = app.DefaultReadBufferBytes
	DefaultMaxRecordBytes  = app.DefaultMaxRecordBytes
	DefaultJournalPath     = fs.DefaultJournalPath
	DefaultShutdownTimeout = lifecycle.ShutdownTimeout
)

// Config holds the settings of a Ringsock instance.
type Config struct {
	// ListenAddr is the TCP address clients connect to.
	// Default: ":9000"
	ListenAddr string

	// Capacity is the number of entries the ring retains.
	// Default: 10
	Capacity int

	// ReadBufferBytes is the size of one socket read.
	// Default: 1024
	ReadBufferBytes int

	// MaxRecordBytes bounds a single record including its delimiter.
	// Zero keeps the default; there is no unbounded setting.
	// Default: 1 MiB
	MaxRecordBytes int

	// CursorMode is "persist" or "once".
	// Default: "persist"
	CursorMode string

	// ReplySource is "ring" or "journal".
	// Default: "ring"
	ReplySource string

	// WriteTimeout bounds one reply. Zero disables the deadline.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds how long Stop waits for connections.
	// Default: 30s
	ShutdownTimeout time.Duration

	// JournalKind is "file", "pebble" or "none".
	// Default: "file"
	JournalKind string

	// JournalPath is the journal file, or the pebble directory.
	// Default: "/var/tmp/ringsockdata" ("/var/tmp/ringsockdata.pebble" for pebble)
	JournalPath string

	// JournalSync makes every append durable before the reply is sent.
	JournalSync bool

	// KeepJournal leaves the journal on disk after Stop so the next start
	// can restore the ring from it.
	KeepJournal bool

	// MetricsAddr serves Prometheus metrics when set, e.g. ":9100".
	MetricsAddr string
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.ReadBufferBytes == 0 {
		c.ReadBufferBytes = DefaultReadBufferBytes
	}
	if c.MaxRecordBytes == 0 {
		c.MaxRecordBytes = DefaultMaxRecordBytes
	}
	if c.CursorMode == "" {
		c.CursorMode = domain.CursorPersist.String()
	}
	if c.ReplySource == "" {
		c.ReplySource = domain.ReplyFromRing.String()
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.JournalKind == "" {
		c.JournalKind = JournalFile
	}
	if c.JournalPath == "" {
		switch c.JournalKind {
		case JournalPebble:
			c.JournalPath = DefaultJournalPath + ".pebble"
		default:
			c.JournalPath = DefaultJournalPath
		}
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return invalid("listen address is required")
	}
	if c.Capacity <= 0 {
		return invalid("capacity must be positive, got %d", c.Capacity)
	}
	if c.ReadBufferBytes <= 0 {
		return invalid("read buffer must be positive, got %d", c.ReadBufferBytes)
	}
	if c.MaxRecordBytes <= 0 {
		return invalid("max record bytes must be positive, got %d", c.MaxRecordBytes)
	}
	if c.WriteTimeout < 0 {
		return invalid("write timeout must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return invalid("shutdown timeout must be positive")
	}
	if _, err := domain.ParseCursorMode(c.CursorMode); err != nil {
		return err
	}
	source, err := domain.ParseReplySource(c.ReplySource)
	if err != nil {
		return err
	}
	switch c.JournalKind {
	case JournalFile, JournalPebble:
	case JournalNone:
		if source == domain.ReplyFromJournal {
			return invalid("reply source %q needs a journal", c.ReplySource)
		}
	default:
		return invalid("unknown journal kind %q", c.JournalKind)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
