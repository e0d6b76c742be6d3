// Package logx provides the structured logger used by the comparator
// service: an injected sink list instead of
// a package-global logger (spec §9, Redesign Flag "Global mutable
// state"), built on zerolog.MultiLevelWriter.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's level names without exposing the dependency
// at call sites that only need to pick a verbosity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) zerolog() zerolog.Level {
	switch l {
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

// Logger wraps a zerolog.Logger writing to every sink it was built
// with. The sink list is the injected replacement for a singleton
// global logger: tests pass a bytes.Buffer, the service CLI passes an
// append-mode log file plus stderr.
type Logger struct {
	logger zerolog.Logger
}

// New builds a Logger at level writing to every sink in sinks. An
// empty sinks list defaults to stdout.
func New(level Level, sinks ...io.Writer) *Logger {
	if len(sinks) == 0 {
		sinks = []io.Writer{os.Stdout}
	}
	var out io.Writer
	if len(sinks) == 1 {
		out = sinks[0]
	} else {
		out = zerolog.MultiLevelWriter(sinks...)
	}
	zlog := zerolog.New(out).Level(level.zerolog()).With().Timestamp().Logger()
	return &Logger{logger: zlog}
}

// Debug logs msg at debug level with the given key/value fields.
func (l *Logger) Debug(msg string, fields map[string]any) { l.emit(l.logger.Debug(), msg, fields) }

// Info logs msg at info level with the given key/value fields.
func (l *Logger) Info(msg string, fields map[string]any) { l.emit(l.logger.Info(), msg, fields) }

// Warn logs msg at warn level with the given key/value fields.
func (l *Logger) Warn(msg string, fields map[string]any) { l.emit(l.logger.Warn(), msg, fields) }

// Error logs msg at error level with the given key/value fields.
func (l *Logger) Error(msg string, fields map[string]any) { l.emit(l.logger.Error(), msg, fields) }

func (l *Logger) emit(event *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
