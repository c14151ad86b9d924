// Package logger provides structured JSON logging and metrics tracking for the
// survey watcher.
//
// Every log line is a single JSON object with a timestamp, level, message and
// optional structured fields. Child loggers created with With carry a fixed set
// of fields (for example the watcher's run_id) into every entry they write.
//
// Metrics tracking includes counters, gauges and timings. The watcher records
// check counts and durations here and the status server exposes the snapshot.
//
// Example usage:
//
//	log := logger.Default().With(logger.Fields{"run_id": id})
//	log.Info("new data available", logger.Fields{"last_update": ts})
//	logger.IncrCounter("checks.total")
//	logger.RecordTiming("check.duration", time.Since(start))
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel converts a case-insensitive level name into a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown log level: %q", s)
	}
	return level, nil
}

// Fields represents structured log fields
type Fields map[string]interface{}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Logger writes structured log entries to an output stream.
// Loggers derived with With share the parent's output and lock.
type Logger struct {
	minLevel Level
	mu       *sync.Mutex
	output   io.Writer
	base     Fields
	now      func() time.Time
}

var defaultLogger = New(LevelInfo, os.Stdout)

// New creates a new logger with the specified minimum log level and output destination.
// Messages below the minimum level will be discarded.
func New(level Level, output io.Writer) *Logger {
	if _, ok := levelRank[level]; !ok {
		level = LevelInfo
	}
	return &Logger{
		minLevel: level,
		mu:       &sync.Mutex{},
		output:   output,
		now:      time.Now,
	}
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the package-level logger used by Debug, Info, Warn and Error.
func SetDefault(logger *Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	child := *l
	child.base = merged
	return &child
}

func (l *Logger) log(level Level, message string, fields Fields, err error) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    l.merge(fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, marshalErr := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()

	if marshalErr != nil {
		fmt.Fprintf(l.output, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, marshalErr)
		return
	}
	fmt.Fprintln(l.output, string(data))
}

func (l *Logger) merge(fields Fields) Fields {
	if len(l.base) == 0 {
		return fields
	}
	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func (l *Logger) shouldLog(level Level) bool {
	return levelRank[level] >= levelRank[l.minLevel]
}

// Debug logs a debug message with optional structured fields.
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields, nil)
}

// Info logs an informational message with optional structured fields.
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields, nil)
}

// Warn logs a warning message with optional structured fields.
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields, nil)
}

// Error logs an error message with optional structured fields and an error object.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.log(LevelError, message, fields, err)
}

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}
