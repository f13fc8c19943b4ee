package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr      string `toml:"listen_addr"`
	Capacity        int    `toml:"capacity"`
	ReadBufferBytes int    `toml:"read_buffer_bytes"`
	MaxRecordBytes  int    `toml:"max_record_bytes"`
	CursorMode      string `toml:"cursor_mode"`
	ReplySource     string `toml:"reply_source"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	JournalKind     string `toml:"journal_kind"`
	JournalPath     string `toml:"journal_path"`
	JournalSync     *bool  `toml:"journal_sync"`
	KeepJournal     *bool  `toml:"keep_journal"`
	MetricsAddr     string `toml:"metrics_addr"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.ringsock/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".ringsock", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("cursor-mode", fc.CursorMode, &cfg.CursorMode)
	s.setString("reply-source", fc.ReplySource, &cfg.ReplySource)
	s.setString("journal", fc.JournalKind, &cfg.JournalKind)
	s.setString("journal-path", fc.JournalPath, &cfg.JournalPath)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	s.setInt("capacity", fc.Capacity, &cfg.Capacity)
	s.setInt("read-buffer", fc.ReadBufferBytes, &cfg.ReadBufferBytes)
	s.setInt("max-record", fc.MaxRecordBytes, &cfg.MaxRecordBytes)

	if err := s.setDuration("write-timeout", fc.WriteTimeout, &cfg.WriteTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBool("journal-sync", fc.JournalSync, &cfg.JournalSync)
	s.setBool("keep-journal", fc.KeepJournal, &cfg.KeepJournal)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
