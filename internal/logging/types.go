package logging

import "errors"

// #region logger
// Logger is the diagnostics sink handed to every analysis component.
// It only carries observations; no component branches on what was logged.
type Logger interface {
	Debug(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// ErrNilLogger is returned by constructors that were not given a Logger.
var ErrNilLogger = errors.New("logger is required")

// #endregion logger

// #region level
// Level identifies the severity of a recorded entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// #endregion level

// #region entry
// Entry is one message captured by a Recorder.
type Entry struct {
	Level   Level
	Message string
	Fields  []any
}

// #endregion entry
