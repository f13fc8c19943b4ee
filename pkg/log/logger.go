package log

import (
	"net"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger provides structured logging capabilities.
// Implementations can wrap zerolog, zap, logrus, or any other logging library.
type Logger interface {
	// Debug logs a debug-level message with fields.
	Debug(msg string, fields ...Field)

	// Info logs an info-level message with fields.
	Info(msg string, fields ...Field)

	// Warn logs a warning-level message with fields.
	Warn(msg string, fields ...Field)

	// Error logs an error-level message with fields.
	Error(msg string, fields ...Field)
}

// Leveler is implemented by loggers whose level can change at runtime.
type Leveler interface {
	// SetLevel switches to the named level ("debug", "info", "warn", "error").
	SetLevel(level string) error
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field with key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any creates a field with any value.
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// ConnID creates a "conn" field identifying a client connection.
func ConnID(id string) Field {
	return Field{Key: "conn", Value: id}
}

// Remote creates a "remote" field from a peer address.
func Remote(addr net.Addr) Field {
	if addr == nil {
		return Field{Key: "remote", Value: ""}
	}
	return Field{Key: "remote", Value: addr.String()}
}

// Bytes creates a human-readable size field, e.g. "1.2 kB".
func Bytes(key string, n int64) Field {
	if n < 0 {
		n = 0
	}
	return Field{Key: key, Value: humanize.Bytes(uint64(n))}
}

// With returns a Logger that adds fields to every message logged through l.
func With(l Logger, fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	if w, ok := l.(*withLogger); ok {
		merged := make([]Field, 0, len(w.fields)+len(fields))
		merged = append(merged, w.fields...)
		merged = append(merged, fields...)
		return &withLogger{parent: w.parent, fields: merged}
	}
	return &withLogger{parent: l, fields: fields}
}

type withLogger struct {
	parent Logger
	fields []Field
}

func (w *withLogger) merge(fields []Field) []Field {
	out := make([]Field, 0, len(w.fields)+len(fields))
	out = append(out, w.fields...)
	return append(out, fields...)
}

func (w *withLogger) Debug(msg string, fields ...Field) { w.parent.Debug(msg, w.merge(fields)...) }
func (w *withLogger) Info(msg string, fields ...Field)  { w.parent.Info(msg, w.merge(fields)...) }
func (w *withLogger) Warn(msg string, fields ...Field)  { w.parent.Warn(msg, w.merge(fields)...) }
func (w *withLogger) Error(msg string, fields ...Field) { w.parent.Error(msg, w.merge(fields)...) }
