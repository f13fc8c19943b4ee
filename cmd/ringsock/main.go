package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/ringsock"
	"github.com/bft-labs/ringsock/internal/cliconfig"
	"github.com/bft-labs/ringsock/pkg/log"
	lib "github.com/bft-labs/ringsock/pkg/ringsock"
	"github.com/bft-labs/ringsock/plugins/configwatcher"
)

const helpDescription = `
Serve a fixed-size ring of newline-delimited records over TCP.

Every record a client sends is stored in the ring, evicting the oldest entry
once the ring is full, and the client receives the ring contents in reply.
A record of the form "SEEKTO:<index>,<offset>" moves the client's read
position instead of being stored.

Records are also appended to a journal (file or pebble) so a restart can
restore the ring. cursor_mode and log_level are reloaded from the config
file while running.
`

var exampleUsage = strings.TrimSpace(`
  ringsock --listen :9000 --capacity 10
  ringsock --config $HOME/.ringsock/config.toml --metrics-addr :9100
  ringsock --journal pebble --keep-journal --cursor-mode once
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cliconfig.Logger(cfg)

	root := &cobra.Command{
		Use:          "ringsock",
		Short:        "Serve a fixed-size ring of records over TCP",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// File first, then RINGSOCK_* environment, then flags.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			loaded := ""
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
				loaded = cfgFile
			} else if cfgPath != "" {
				return fmt.Errorf("config file %s not found", cfgPath)
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = cliconfig.Logger(cfg)
			logger.Info("configuration", log.Any("config", cfg), log.String("file", loaded))

			opts := []lib.Option{lib.WithLogger(logger)}
			if loaded != "" {
				opts = append(opts,
					lib.WithConfigFile(loaded),
					configwatcher.WithConfigWatcher(configwatcher.DefaultConfig()),
				)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := ringsock.Run(ctx, cfg.Ringsock(), opts...)
			if ctx.Err() != nil {
				logger.Info("received signal, stopped")
			}
			if errors.Is(err, lib.ErrNotRunning) {
				return nil
			}
			return err
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.ringsock/config.toml)")
	f.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP listen address")
	f.IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "number of records the ring retains")
	f.IntVar(&cfg.ReadBufferBytes, "read-buffer", cfg.ReadBufferBytes, "bytes read from a connection per call")
	f.IntVar(&cfg.MaxRecordBytes, "max-record", cfg.MaxRecordBytes, "maximum record size in bytes, delimiter included")
	f.StringVar(&cfg.CursorMode, "cursor-mode", cfg.CursorMode, "seek cursor lifetime: persist or once")
	f.StringVar(&cfg.ReplySource, "reply-source", cfg.ReplySource, "reply from the ring or the journal")
	f.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "deadline for one reply (0 disables)")
	f.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "how long to wait for connections on shutdown")
	f.StringVar(&cfg.JournalKind, "journal", cfg.JournalKind, "journal backend: file, pebble or none")
	f.StringVar(&cfg.JournalPath, "journal-path", cfg.JournalPath, fmt.Sprintf("journal location (default %s)", lib.DefaultJournalPath))
	f.BoolVar(&cfg.JournalSync, "journal-sync", cfg.JournalSync, "sync the journal before every reply")
	f.BoolVar(&cfg.KeepJournal, "keep-journal", cfg.KeepJournal, "keep the journal on shutdown and restore from it on start")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")

	if err := root.Execute(); err != nil {
		logger.Error("ringsock", log.Err(err))
		os.Exit(1)
	}
}
