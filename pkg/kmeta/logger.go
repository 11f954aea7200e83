package kmeta

import (
	"fmt"
	"io"
	"strings"
)

// LogLevel designates which level the logger should log at.
type LogLevel int8

const (
	// LogLevelNone disables logging.
	LogLevelNone LogLevel = iota
	// LogLevelError logs all errors, such as dropped topics in a refresh.
	LogLevelError
	// LogLevelWarn logs all warnings, such as failed refresh attempts.
	LogLevelWarn
	// LogLevelInfo logs informational messages.
	LogLevelInfo
	// LogLevelDebug logs verbose information, such as every applied
	// update, and is usually not used in production.
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	}
	return "NONE"
}

// Logger is used to log informational messages.
type Logger interface {
	// Level returns the log level to log at.
	//
	// Implementations can change their log level on the fly, but this
	// function must be safe to call concurrently.
	Level() LogLevel

	// Log logs a message with key, value pair arguments for the given log
	// level.
	//
	// This must be safe to call concurrently.
	Log(level LogLevel, msg string, keyvals ...any)
}

// BasicLogger returns a logger that writes to dst in the following format:
//
//	[LEVEL] message; key: val, key: val
func BasicLogger(dst io.Writer, level LogLevel) Logger {
	return &basicLogger{dst, level}
}

type basicLogger struct {
	dst   io.Writer
	level LogLevel
}

func (b *basicLogger) Level() LogLevel { return b.level }
func (b *basicLogger) Log(level LogLevel, msg string, keyvals ...any) {
	var sb strings.Builder
	sb.WriteString("[" + level.String() + "] " + msg)
	if len(keyvals) > 0 {
		sb.WriteString("; ")
		format := strings.Repeat("%v: %v, ", len(keyvals)/2)
		format = format[:len(format)-2] // trim trailing comma and space
		fmt.Fprintf(&sb, format, keyvals...)
	}
	sb.WriteByte('\n')
	io.WriteString(b.dst, sb.String())
}

// wrappedLogger wraps the config logger for convenience at logging callsites.
// A nil inner logger drops everything.
type wrappedLogger struct {
	inner Logger
}

func (w *wrappedLogger) Level() LogLevel {
	if w.inner == nil {
		return LogLevelNone
	}
	return w.inner.Level()
}

func (w *wrappedLogger) Log(level LogLevel, msg string, keyvals ...any) {
	if w.Level() < level {
		return
	}
	w.inner.Log(level, msg, keyvals...)
}
