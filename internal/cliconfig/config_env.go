package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "RINGSOCK_"

// ApplyEnvConfig applies RINGSOCK_* environment variables to cfg.
// Variables override the config file but not explicitly set flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("listen", env("LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("cursor-mode", env("CURSOR_MODE"), &cfg.CursorMode)
	s.setString("reply-source", env("REPLY_SOURCE"), &cfg.ReplySource)
	s.setString("journal", env("JOURNAL_KIND"), &cfg.JournalKind)
	s.setString("journal-path", env("JOURNAL_PATH"), &cfg.JournalPath)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setIntFromString("capacity", env("CAPACITY"), &cfg.Capacity); err != nil {
		return err
	}
	if err := s.setIntFromString("read-buffer", env("READ_BUFFER_BYTES"), &cfg.ReadBufferBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("max-record", env("MAX_RECORD_BYTES"), &cfg.MaxRecordBytes); err != nil {
		return err
	}

	if err := s.setDuration("write-timeout", env("WRITE_TIMEOUT"), &cfg.WriteTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", env("SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setBoolFromString("journal-sync", env("JOURNAL_SYNC"), &cfg.JournalSync)
	s.setBoolFromString("keep-journal", env("KEEP_JOURNAL"), &cfg.KeepJournal)

	return nil
}
