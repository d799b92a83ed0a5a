package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	globalMu     sync.RWMutex
	globalLogger = newStderrLogger()
)

// Field represents a structured logging attribute.
type Field struct {
	Key   string
	Value any
}

// String returns a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int returns an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 returns an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Uint64 returns a uint64 field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Bool returns a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Error returns an error field.
func Error(err error) Field { return Field{Key: "error", Value: err} }

// Logger emits JSON-formatted structured logs with optional contextual
// fields.
type Logger struct {
	entry *logrus.Entry
}

// New constructs a JSON logger at the requested verbosity, writing to
// stdout.
func New(level string) (*Logger, error) {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput constructs a JSON logger writing to the supplied sink.
func NewWithOutput(level string, out io.Writer) (*Logger, error) {
	parsed, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(parsed)
	base.SetFormatter(&logrus.JSONFormatter{})
	return &Logger{entry: logrus.NewEntry(base).WithField("service", "gateway")}, nil
}

func parseLevel(raw string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "fatal":
		return logrus.FatalLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}

// NewTestLogger returns a logger that discards output, suitable for tests.
func NewTestLogger() *Logger {
	return newNopLogger()
}

func newNopLogger() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(base)}
}

// newStderrLogger is the before-configuration fallback, so startup failures
// are never swallowed.
func newStderrLogger() *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	return &Logger{entry: logrus.NewEntry(base)}
}

// ReplaceGlobals swaps the fallback logger used when no explicit logger is
// supplied.
func ReplaceGlobals(logger *Logger) {
	if logger == nil {
		return
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// L returns the current global logger.
func L() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// With augments the logger with additional structured fields.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return L().With(fields...)
	}
	entry := l.entry
	for _, field := range fields {
		entry = entry.WithField(field.Key, field.Value)
	}
	return &Logger{entry: entry}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...Field) { l.log(logrus.DebugLevel, message, fields) }

// Info logs an informational message.
func (l *Logger) Info(message string, fields ...Field) { l.log(logrus.InfoLevel, message, fields) }

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...Field) { l.log(logrus.WarnLevel, message, fields) }

// Error logs an error message.
func (l *Logger) Error(message string, fields ...Field) { l.log(logrus.ErrorLevel, message, fields) }

// Fatal logs a fatal message and exits the process.
func (l *Logger) Fatal(message string, fields ...Field) { l.log(logrus.FatalLevel, message, fields) }

func (l *Logger) log(level logrus.Level, message string, fields []Field) {
	if l == nil {
		L().log(level, message, fields)
		return
	}
	entry := l.entry
	for _, field := range fields {
		entry = entry.WithField(field.Key, field.Value)
	}
	entry.Log(level, message)
	if level == logrus.FatalLevel {
		entry.Logger.Exit(1)
	}
}
