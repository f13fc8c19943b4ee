package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a ZerologAdapter.
type Options struct {
	// Level is the minimum level logged. Defaults to "info".
	Level string

	// Format is "console" (default) or "json".
	Format string

	// Out is the destination. Defaults to os.Stderr.
	Out io.Writer
}

// ZerologAdapter implements Logger and Leveler using zerolog.
type ZerologAdapter struct {
	logger atomic.Pointer[zerolog.Logger]
}

// NewZerologAdapter creates a zerolog adapter from opts.
// An unknown level falls back to info.
func NewZerologAdapter(opts Options) *ZerologAdapter {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return NewZerologAdapterWithLogger(zerolog.New(out).Level(level).With().Timestamp().Logger())
}

// NewZerologAdapterWithLogger creates an adapter wrapping an existing zerolog.Logger.
func NewZerologAdapterWithLogger(logger zerolog.Logger) *ZerologAdapter {
	z := &ZerologAdapter{}
	z.logger.Store(&logger)
	return z
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// SetLevel changes the minimum level for subsequent messages.
func (z *ZerologAdapter) SetLevel(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	next := z.logger.Load().Level(l)
	z.logger.Store(&next)
	return nil
}

// Level returns the current minimum level.
func (z *ZerologAdapter) Level() zerolog.Level {
	return z.logger.Load().GetLevel()
}

// Debug logs a debug-level message.
func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	emit(z.logger.Load().Debug(), msg, fields)
}

// Info logs an info-level message.
func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	emit(z.logger.Load().Info(), msg, fields)
}

// Warn logs a warning-level message.
func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	emit(z.logger.Load().Warn(), msg, fields)
}

// Error logs an error-level message.
func (z *ZerologAdapter) Error(msg string, fields ...Field) {
	emit(z.logger.Load().Error(), msg, fields)
}

// emit is a no-op when the level is disabled (zerolog returns a nil event).
func emit(event *zerolog.Event, msg string, fields []Field) {
	if event == nil {
		return
	}
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

// addField adds a Field to a zerolog.Event.
func addField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case int64:
		return event.Int64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case time.Duration:
		return event.Dur(f.Key, v)
	case error:
		return event.AnErr(f.Key, v)
	case fmt.Stringer:
		return event.Stringer(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}

// Logger returns a copy of the underlying zerolog.Logger.
func (z *ZerologAdapter) Logger() zerolog.Logger {
	return *z.logger.Load()
}
