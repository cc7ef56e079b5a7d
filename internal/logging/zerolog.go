package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects and tunes a logging backend.
type Config struct {
	// Backend is "zerolog" (default) or "json" for the plain StdoutLogger.
	Backend string

	// Level is one of debug, info, warn, error.
	Level string

	// File, when set, additionally writes entries to a size-rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console renders human-friendly lines instead of JSON on stdout.
	Console bool
}

// New builds the Logger described by cfg for the named component.
func New(cfg Config, component string) Logger {
	level := ParseLevel(cfg.Level)
	out := []io.Writer{os.Stdout}
	if cfg.Backend == "zerolog" || cfg.Backend == "" {
		if cfg.Console {
			out[0] = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		}
	}
	if cfg.File != "" {
		out = append(out, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		})
	}

	switch cfg.Backend {
	case "json":
		return NewWriterLogger(io.MultiWriter(out...), component, level)
	default:
		return NewZerologLogger(zerolog.MultiLevelWriter(out...), component, level)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger writes JSON entries to w through zerolog.
func NewZerologLogger(w io.Writer, component string, level Level) *ZerologLogger {
	ctx := zerolog.New(w).Level(toZerolog(level)).With().Timestamp()
	if component != "" {
		ctx = ctx.Str("component", component)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}

func toZerolog(l Level) zerolog.Level {
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

func (z *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func (z *ZerologLogger) Debug(msg string, fields ...Field) { z.emit(z.zl.Debug(), msg, fields) }
func (z *ZerologLogger) Info(msg string, fields ...Field)  { z.emit(z.zl.Info(), msg, fields) }
func (z *ZerologLogger) Warn(msg string, fields ...Field)  { z.emit(z.zl.Warn(), msg, fields) }
func (z *ZerologLogger) Error(msg string, fields ...Field) { z.emit(z.zl.Error(), msg, fields) }

func (z *ZerologLogger) With(fields ...Field) Logger {
	ctx := z.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}
