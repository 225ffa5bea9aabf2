package logger

import (
	charm "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Level is the verbosity of a log record.
type Level = charm.Level

// TraceLevel sits one step below charm's debug level.
const TraceLevel Level = charm.DebugLevel - 1

const (
	DebugLevel = charm.DebugLevel
	InfoLevel  = charm.InfoLevel
	WarnLevel  = charm.WarnLevel
	ErrorLevel = charm.ErrorLevel
	FatalLevel = charm.FatalLevel
)

// offLevel suppresses every record.
const offLevel Level = charm.FatalLevel + 1

// LogLevel is the user-facing name of a level, as written in config files and flags.
type LogLevel string

const (
	LogLevelOff     LogLevel = "Off"
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
)

// ErrInvalidLogLevel is returned by ParseLogLevel for unsupported names.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ParseLogLevel validates a level name. An empty name means Info.
func ParseLogLevel(logLevel string) (LogLevel, error) {
	if logLevel == "" {
		return LogLevelInfo, nil
	}

	switch LogLevel(logLevel) {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelOff:
		return LogLevel(logLevel), nil
	default:
		return "", errors.Wrapf(ErrInvalidLogLevel, "'%s'. Supported log levels are Trace, Debug, Info, Warning, Off", logLevel)
	}
}

// ToLevel converts a LogLevel into the charm level it enables.
func (l LogLevel) ToLevel() Level {
	switch l {
	case LogLevelTrace:
		return TraceLevel
	case LogLevelDebug:
		return DebugLevel
	case LogLevelWarning:
		return WarnLevel
	case LogLevelOff:
		return offLevel
	default:
		return InfoLevel
	}
}
