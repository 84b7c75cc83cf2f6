package common

import (
	"errors"
)

// Discriminator bounds (closed range).
const (
	MinDisc = 0
	MaxDisc = 9999

	// InvalidDisc marks an unset discriminator.
	InvalidDisc = -1
)

// Secondary index rebuild thresholds. A node is only considered for a
// rebuild once one of its subtrees holds at least RebuildMinSubtree slots,
// and then only if one side outweighs the other by more than RebuildRatio.
const (
	RebuildMinSubtree = 4
	RebuildRatio      = 1.5
)

// Record layout for bulk ingestion.
const (
	RecordFields    = 5
	RecordDelimiter = ','
)

// Common errors
var (
	ErrInvalidDiscriminator = errors.New("discriminator out of valid range (0-9999)")
	ErrDuplicateKey         = errors.New("discriminator already in use")
	ErrNotFound             = errors.New("account not found")
	ErrMalformedRecord      = errors.New("malformed record")
)

// ValidDisc reports whether disc lies in [MinDisc, MaxDisc].
func ValidDisc(disc int) bool {
	return disc >= MinDisc && disc <= MaxDisc
}

// Logger provides structured logging.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the lower-case level name.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	}
	return "unknown"
}
