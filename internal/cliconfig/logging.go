package cliconfig

import (
	"os"

	"github.com/bft-labs/ringsock/pkg/log"
)

// Logger builds the process logger from the log settings in c.
func Logger(c Config) *log.ZerologAdapter {
	return log.NewZerologAdapter(log.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Out:    os.Stderr,
	})
}
