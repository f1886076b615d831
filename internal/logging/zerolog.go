package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// #region zerolog-sink
type zerologSink struct {
	log zerolog.Logger
}

// NewZerolog adapts a zerolog.Logger to the Logger interface.
// Key/value pairs are attached as structured fields.
func NewZerolog(log zerolog.Logger) Logger {
	return &zerologSink{log: log}
}

func (z *zerologSink) Debug(msg string, kv ...any) { withFields(z.log.Debug(), kv).Msg(msg) }
func (z *zerologSink) Warn(msg string, kv ...any)  { withFields(z.log.Warn(), kv).Msg(msg) }
func (z *zerologSink) Error(msg string, kv ...any) { withFields(z.log.Error(), kv).Msg(msg) }

func withFields(ev *zerolog.Event, kv []any) *zerolog.Event {
	if len(kv) == 0 {
		return ev
	}
	if len(kv)%2 != 0 {
		kv = append(kv, "(missing)")
	}
	return ev.Fields(kv)
}

// #endregion zerolog-sink

// #region console
// NewConsole builds a human-readable zerolog logger writing to w at the given
// level name ("debug", "warn", ...). Unknown levels fall back to info.
func NewConsole(w io.Writer, level string) Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return NewZerolog(zerolog.New(out).Level(lvl).With().Timestamp().Logger())
}

// #endregion console
