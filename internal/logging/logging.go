// Package logging provides a leveled structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) option() level.Option {
	switch l {
	case LevelDebug:
		return level.AllowDebug()
	case LevelInfo:
		return level.AllowInfo()
	case LevelWarn:
		return level.AllowWarn()
	case LevelError:
		return level.AllowError()
	default:
		return level.AllowNone()
	}
}

// Format selects the line encoding.
type Format string

const (
	FormatLogfmt Format = "logfmt"
	FormatJSON   Format = "json"
)

// Logger is a leveled logger writing logfmt or JSON lines. Loggers derived
// with With share the parent's output and level.
type Logger struct {
	core *core
	ctx  []interface{}
}

type core struct {
	mu     sync.Mutex
	level  Level
	format Format
	output io.Writer
	kit    kitlog.Logger
}

// New creates a logfmt logger on stderr.
func New(lvl Level) *Logger {
	return NewWithFormat(lvl, FormatLogfmt, os.Stderr)
}

// NewWithFormat creates a logger with an explicit encoding and output.
func NewWithFormat(lvl Level, format Format, w io.Writer) *Logger {
	c := &core{level: lvl, format: format, output: w}
	c.rebuild()
	return &Logger{core: c}
}

func (c *core) rebuild() {
	w := kitlog.NewSyncWriter(c.output)
	var base kitlog.Logger
	if c.format == FormatJSON {
		base = kitlog.NewJSONLogger(w)
	} else {
		base = kitlog.NewLogfmtLogger(w)
	}
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC)
	c.kit = level.NewFilter(base, c.level.option())
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.output = w
	l.core.rebuild()
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(lvl Level) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = lvl
	l.core.rebuild()
}

// With returns a logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	ctx := make([]interface{}, 0, len(l.ctx)+len(keyvals))
	ctx = append(ctx, l.ctx...)
	ctx = append(ctx, keyvals...)
	return &Logger{core: l.core, ctx: ctx}
}

// Kit exposes the underlying go-kit logger, including With context.
func (l *Logger) Kit() kitlog.Logger {
	l.core.mu.Lock()
	kit := l.core.kit
	l.core.mu.Unlock()
	if len(l.ctx) > 0 {
		kit = kitlog.With(kit, l.ctx...)
	}
	return kit
}

func (l *Logger) log(lvl Level, format string, args ...interface{}) {
	kit := l.Kit()
	switch lvl {
	case LevelDebug:
		kit = level.Debug(kit)
	case LevelInfo:
		kit = level.Info(kit)
	case LevelWarn:
		kit = level.Warn(kit)
	default:
		kit = level.Error(kit)
	}
	_ = kit.Log("msg", fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return NewWithFormat(LevelError+1, FormatLogfmt, io.Discard)
}
