package log

// NoopLogger discards everything. It is the default logger of the
// coordinator, sessions and server when none is supplied, and of a
// Ringsock built without WithLogger.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(msg string, fields ...Field) {}
func (NoopLogger) Info(msg string, fields ...Field)  {}
func (NoopLogger) Warn(msg string, fields ...Field)  {}
func (NoopLogger) Error(msg string, fields ...Field) {}

// SetLevel validates level and otherwise does nothing, so a bad level
// pushed by a config reload is still reported.
func (NoopLogger) SetLevel(level string) error {
	_, err := ParseLevel(level)
	return err
}

var (
	_ Logger  = NoopLogger{}
	_ Leveler = NoopLogger{}
)
