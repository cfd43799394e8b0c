package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// RecordingLogger keeps every message so tests can assert on what was logged.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, strings.TrimSpace(fmt.Sprintf("%s %s %v", level, msg, args)))
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }

// Entries returns a copy of the recorded lines, each "LEVEL msg [args]".
func (l *RecordingLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Contains reports whether any recorded line contains s.
func (l *RecordingLogger) Contains(s string) bool {
	for _, e := range l.Entries() {
		if strings.Contains(e, s) {
			return true
		}
	}
	return false
}
