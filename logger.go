package teer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logging contract used by the client. Arguments after
// msg are alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	zlog zerolog.Logger
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zlog: l}
}

// NewLogger creates a stderr logger at the given level ("debug", "info", ...).
// Unknown levels fall back to info. If pretty is true, output is formatted for
// humans instead of JSON.
func NewLogger(level string, pretty bool) *ZerologLogger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return newLoggerTo(out, level)
}

func newLoggerTo(out io.Writer, level string) *ZerologLogger {
	zLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		zLevel = zerolog.InfoLevel
	}
	l := zerolog.New(out).With().Timestamp().Str("component", "teer").Logger().Level(zLevel)
	return &ZerologLogger{zlog: l}
}

// Debug implements Logger.
func (l *ZerologLogger) Debug(msg string, keysAndValues ...any) {
	emit(l.zlog.Debug(), msg, keysAndValues)
}

// Info implements Logger.
func (l *ZerologLogger) Info(msg string, keysAndValues ...any) {
	emit(l.zlog.Info(), msg, keysAndValues)
}

// Warn implements Logger.
func (l *ZerologLogger) Warn(msg string, keysAndValues ...any) {
	emit(l.zlog.Warn(), msg, keysAndValues)
}

// Error implements Logger.
func (l *ZerologLogger) Error(msg string, keysAndValues ...any) {
	emit(l.zlog.Error(), msg, keysAndValues)
}

// emit attaches key/value pairs to the event. A nil event (level disabled) is a no-op.
func emit(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if i+1 >= len(kv) {
			ev = ev.Interface("!BADKEY", kv[i])
			break
		}
		switch v := kv[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }
