package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/ringsock/pkg/log"
	"github.com/bft-labs/ringsock/pkg/ringsock"
)

// Config holds CLI configuration for ringsock.
type Config struct {
	ListenAddr      string
	Capacity        int
	ReadBufferBytes int
	MaxRecordBytes  int

	CursorMode  string
	ReplySource string

	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	JournalKind string
	JournalPath string
	JournalSync bool
	KeepJournal bool

	MetricsAddr string

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a Config with default values.
// JournalPath is left empty so it can follow JournalKind during Validate.
func DefaultConfig() Config {
	lib := ringsock.DefaultConfig()
	return Config{
		ListenAddr:      lib.ListenAddr,
		Capacity:        lib.Capacity,
		ReadBufferBytes: lib.ReadBufferBytes,
		MaxRecordBytes:  lib.MaxRecordBytes,
		CursorMode:      lib.CursorMode,
		ReplySource:     lib.ReplySource,
		ShutdownTimeout: lib.ShutdownTimeout,
		JournalKind:     lib.JournalKind,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("log-format must be console or json, got %q", c.LogFormat)
	}

	lib := c.Ringsock()
	if err := lib.Validate(); err != nil {
		return err
	}
	c.JournalPath = lib.JournalPath
	return nil
}

// Ringsock converts the CLI configuration to the library configuration.
func (c Config) Ringsock() ringsock.Config {
	lib := ringsock.Config{
		ListenAddr:      c.ListenAddr,
		Capacity:        c.Capacity,
		ReadBufferBytes: c.ReadBufferBytes,
		MaxRecordBytes:  c.MaxRecordBytes,
		CursorMode:      c.CursorMode,
		ReplySource:     c.ReplySource,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
		JournalKind:     c.JournalKind,
		JournalPath:     c.JournalPath,
		JournalSync:     c.JournalSync,
		KeepJournal:     c.KeepJournal,
		MetricsAddr:     c.MetricsAddr,
	}
	lib.SetDefaults()
	return lib
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
