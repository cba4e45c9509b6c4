package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level orders log severities.
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
	default:
		return "ERROR"
	}
}

// ParseLevel maps a level name, defaulting to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// BasicLogger writes key=value lines to an io.Writer.
type BasicLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  Level
	fields []Field
}

var _ Logger = (*BasicLogger)(nil)

// New returns a basic logger writing to stdout at info level.
func New() *BasicLogger {
	return NewWithWriter(os.Stdout, LevelInfo)
}

// NewWithWriter returns a basic logger writing to out.
func NewWithWriter(out io.Writer, level Level) *BasicLogger {
	if out == nil {
		out = io.Discard
	}
	return &BasicLogger{mu: &sync.Mutex{}, out: out, level: level}
}

// Default returns the default basic logger implementation.
func Default() Logger {
	return New()
}

func (l *BasicLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	next := &BasicLogger{mu: l.mu, out: l.out, level: l.level}
	next.fields = append(append([]Field(nil), l.fields...), fields...)
	return next
}

func (l *BasicLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *BasicLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *BasicLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *BasicLogger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *BasicLogger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for _, f := range append(append([]Field(nil), l.fields...), fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	b.WriteByte('\n')
	l.mu.Lock()
	_, _ = io.WriteString(l.out, b.String())
	l.mu.Unlock()
}
