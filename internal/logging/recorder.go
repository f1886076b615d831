package logging

import (
	"strings"
	"sync"
)

// #region recorder
// Recorder keeps every entry in memory. Used by tests and by callers that
// want to surface warnings inside a report.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Debug(msg string, kv ...any) { r.add(LevelDebug, msg, kv) }
func (r *Recorder) Warn(msg string, kv ...any)  { r.add(LevelWarn, msg, kv) }
func (r *Recorder) Error(msg string, kv ...any) { r.add(LevelError, msg, kv) }

func (r *Recorder) add(level Level, msg string, kv []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fields := make([]any, len(kv))
	copy(fields, kv)
	r.entries = append(r.entries, Entry{Level: level, Message: msg, Fields: fields})
}

// Entries returns a copy of all recorded entries in order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the messages recorded at the given level.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any entry at level has a message containing substr.
func (r *Recorder) Contains(level Level, substr string) bool {
	for _, m := range r.Messages(level) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// #endregion recorder

// #region nop
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// #endregion nop
