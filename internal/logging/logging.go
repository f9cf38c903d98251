package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level controls which messages a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Field is a single structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// WithField attaches one structured field to a log entry.
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithFields expands a map into structured fields. Ordering of the
// resulting fields is not guaranteed.
func WithFields(fields map[string]interface{}) []Field {
	out := make([]Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, Field{Key: k, Value: v})
	}
	return out
}

// Logger is a leveled structured logger used across all services.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger writing JSON to stderr at the given level.
func New(level Level) *Logger {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerologLevel(level))
	return &Logger{zl: zl}
}

// NewWithWriter is exposed for tests that want to capture output.
func NewWithWriter(level Level, w io.Writer) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(zerologLevel(level))
	return &Logger{zl: zl}
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *Logger) emit(ev *zerolog.Event, msg string, fields []interface{}) {
	for _, f := range fields {
		switch v := f.(type) {
		case Field:
			ev = ev.Interface(v.Key, v.Value)
		case []Field:
			for _, inner := range v {
				ev = ev.Interface(inner.Key, inner.Value)
			}
		}
	}
	ev.Msg(msg)
}
