package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"pdf-tile-renderer/internal/domain"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = [...]string{DEBUG: "DEBUG", INFO: "INFO", WARN: "WARN", ERROR: "ERROR"}

func (l LogLevel) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// AppLogger implements the domain.Logger interface. Fields bound with With
// are written before the per-call fields of every line.
type AppLogger struct {
	level  LogLevel
	out    *log.Logger
	fields []interface{}
}

// NewLogger creates a new logger instance writing to stdout
func NewLogger(levelStr string) domain.Logger {
	return NewWithWriter(levelStr, os.Stdout)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(levelStr string, w io.Writer) domain.Logger {
	return &AppLogger{
		level: parseLogLevel(levelStr),
		out:   log.New(w, "", 0),
	}
}

// With returns a logger that adds fields to every line written through l.
func With(l domain.Logger, fields ...interface{}) domain.Logger {
	if len(fields) < 2 {
		return l
	}
	switch base := l.(type) {
	case *AppLogger:
		return &AppLogger{
			level:  base.level,
			out:    base.out,
			fields: concat(base.fields, fields),
		}
	case NopLogger:
		return base
	default:
		return &boundLogger{next: l, fields: fields}
	}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	l.write(INFO, msg, fields)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	l.write(ERROR, msg, concat([]interface{}{"error", err}, fields))
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	l.write(DEBUG, msg, fields)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	l.write(WARN, msg, fields)
}

func (l *AppLogger) write(level LogLevel, msg string, fields []interface{}) {
	if level < l.level {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, msg)
	appendFields(&b, l.fields)
	appendFields(&b, fields)
	l.out.Println(b.String())
}

// appendFields writes key=value pairs; a dangling key is dropped.
func appendFields(b *strings.Builder, fields []interface{}) {
	for i := 0; i+1 < len(fields); i += 2 {
		b.WriteByte(' ')
		fmt.Fprintf(b, "%v=%s", fields[i], formatValue(fields[i+1]))
	}
}

func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func concat(a, b []interface{}) []interface{} {
	out := make([]interface{}, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// parseLogLevel converts string log level to LogLevel enum
func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// boundLogger prepends fields for loggers that are not AppLoggers.
type boundLogger struct {
	next   domain.Logger
	fields []interface{}
}

func (l *boundLogger) Info(msg string, fields ...interface{}) {
	l.next.Info(msg, concat(l.fields, fields)...)
}

func (l *boundLogger) Error(msg string, err error, fields ...interface{}) {
	l.next.Error(msg, err, concat(l.fields, fields)...)
}

func (l *boundLogger) Debug(msg string, fields ...interface{}) {
	l.next.Debug(msg, concat(l.fields, fields)...)
}

func (l *boundLogger) Warn(msg string, fields ...interface{}) {
	l.next.Warn(msg, concat(l.fields, fields)...)
}

// NopLogger discards everything.
type NopLogger struct{}

func NewNopLogger() domain.Logger { return NopLogger{} }

func (NopLogger) Info(msg string, fields ...interface{})             {}
func (NopLogger) Error(msg string, err error, fields ...interface{}) {}
func (NopLogger) Debug(msg string, fields ...interface{})            {}
func (NopLogger) Warn(msg string, fields ...interface{})             {}
