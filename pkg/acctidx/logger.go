package acctidx

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/CVDpl/go-acctidx/internal/common"
)

// DefaultLogger implements common.Logger with structured JSON lines.
type DefaultLogger struct {
	mu     *sync.Mutex
	level  common.LogLevel
	logger *log.Logger
	fields map[string]interface{}
}

// NewDefaultLogger creates a logger writing info and above to stderr.
func NewDefaultLogger() *DefaultLogger {
	return NewDefaultLoggerWithLevel(common.LogLevelInfo)
}

// NewDefaultLoggerWithLevel creates a stderr logger with a specific log level.
func NewDefaultLoggerWithLevel(level common.LogLevel) *DefaultLogger {
	return NewWriterLogger(os.Stderr, level)
}

// NewWriterLogger creates a logger writing to w.
func NewWriterLogger(w io.Writer, level common.LogLevel) *DefaultLogger {
	return &DefaultLogger{
		mu:     &sync.Mutex{},
		level:  level,
		logger: log.New(w, "", 0),
		fields: make(map[string]interface{}),
	}
}

// ParseLogLevel maps "debug", "info", "warn"/"warning" and "error" to a level.
func ParseLogLevel(s string) (common.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return common.LogLevelDebug, nil
	case "", "info":
		return common.LogLevelInfo, nil
	case "warn", "warning":
		return common.LogLevelWarn, nil
	case "error":
		return common.LogLevelError, nil
	}
	return common.LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelDebug {
		l.log(common.LogLevelDebug, msg, fields...)
	}
}

// Info logs an info message.
func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelInfo {
		l.log(common.LogLevelInfo, msg, fields...)
	}
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelWarn {
		l.log(common.LogLevelWarn, msg, fields...)
	}
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	if l.level <= common.LogLevelError {
		l.log(common.LogLevelError, msg, fields...)
	}
}

func (l *DefaultLogger) log(level common.LogLevel, msg string, fields ...interface{}) {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     strings.ToUpper(level.String()),
		"message":   msg,
	}

	// fields are key/value pairs; a dangling key is dropped
	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			entry[key] = fields[i+1]
		}
	}

	for k, v := range l.fields {
		if _, exists := entry[k]; !exists {
			entry[k] = v
		}
	}

	data, err := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.logger.Printf(`{"level":"ERROR","message":"failed to marshal log entry","error":%q}`, err.Error())
		return
	}
	l.logger.Println(string(data))
}

// WithFields returns a logger sharing l's output that adds fields to every
// entry.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) *DefaultLogger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &DefaultLogger{
		mu:     l.mu,
		level:  l.level,
		logger: l.logger,
		fields: merged,
	}
}

// LogError is a helper to log an error with context.
func LogError(logger common.Logger, msg string, err error, fields ...interface{}) {
	allFields := append([]interface{}{"error", err.Error()}, fields...)
	logger.Error(msg, allFields...)
}

// LogLatency is a helper to log operation latency.
func LogLatency(logger common.Logger, operation string, start time.Time, fields ...interface{}) {
	duration := time.Since(start)
	allFields := append([]interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}, fields...)

	if duration > time.Second {
		logger.Warn(fmt.Sprintf("slow operation: %s", operation), allFields...)
	} else {
		logger.Debug(fmt.Sprintf("operation completed: %s", operation), allFields...)
	}
}
