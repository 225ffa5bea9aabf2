package logger

import (
	"io"

	charm "github.com/charmbracelet/log"
)

// Logger wraps a charmbracelet logger and adds a trace level.
type Logger struct {
	charm *charm.Logger
}

// NewLogger wraps an existing charm logger.
func NewLogger(l *charm.Logger) *Logger {
	return &Logger{charm: l}
}

// Trace logs below debug level.
func (l *Logger) Trace(msg interface{}, keyvals ...interface{}) {
	l.charm.Log(TraceLevel, msg, keyvals...)
}

func (l *Logger) Debug(msg interface{}, keyvals ...interface{}) {
	l.charm.Debug(msg, keyvals...)
}

func (l *Logger) Info(msg interface{}, keyvals ...interface{}) {
	l.charm.Info(msg, keyvals...)
}

func (l *Logger) Warn(msg interface{}, keyvals ...interface{}) {
	l.charm.Warn(msg, keyvals...)
}

func (l *Logger) Error(msg interface{}, keyvals ...interface{}) {
	l.charm.Error(msg, keyvals...)
}

// With returns a child logger that always carries keyvals.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{charm: l.charm.With(keyvals...)}
}

func (l *Logger) SetOutput(w io.Writer) {
	l.charm.SetOutput(w)
}

func (l *Logger) SetLevel(level Level) {
	l.charm.SetLevel(level)
}

func (l *Logger) GetLevel() Level {
	return l.charm.GetLevel()
}

// GetLevelString returns the lower-case name of the current level.
func (l *Logger) GetLevelString() string {
	level := l.charm.GetLevel()
	switch {
	case level <= TraceLevel:
		return "trace"
	case level > FatalLevel:
		return "off"
	default:
		return level.String()
	}
}

func (l *Logger) SetReportTimestamp(report bool) {
	l.charm.SetReportTimestamp(report)
}

// IsLevelEnabled reports whether records at level would be written.
func (l *Logger) IsLevelEnabled(level Level) bool {
	return l.charm.GetLevel() <= level
}
