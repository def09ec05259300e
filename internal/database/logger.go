package database

// Logger provides structured logging for the storage layers.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger is a Logger that discards all output. Use in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// LoggerOf returns the logger db writes to, or a NopLogger when the backend
// does not expose one.
func LoggerOf(db Database) Logger {
	if l, ok := db.(interface{ Logger() Logger }); ok && l.Logger() != nil {
		return l.Logger()
	}
	return NewNopLogger()
}
