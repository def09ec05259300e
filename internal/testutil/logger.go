package testutil

import (
	"sync"

	"booru-go/internal/database"
)

// LogEntry is one message captured by RecordingLogger.
type LogEntry struct {
	Level string
	Msg   string
}

// RecordingLogger is a database.Logger that keeps every message.
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ database.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg})
}

func (l *RecordingLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l *RecordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *RecordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *RecordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }
