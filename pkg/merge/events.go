package merge

import (
	log "github.com/cloudposse/confmerge/pkg/logger"
)

// EventKind names a step of a merge run.
type EventKind string

const (
	EventSourceLoaded        EventKind = "source_loaded"
	EventSourceSkipped       EventKind = "source_skipped"
	EventMergeStepApplied    EventKind = "merge_step_applied"
	EventFieldOriginAssigned EventKind = "field_origin_assigned"
	EventGroupViolation      EventKind = "field_group_violation"
	EventConflict            EventKind = "merge_conflict"
)

// Event is a structured trace record emitted by the Engine.
type Event struct {
	Kind   EventKind
	Shape  string
	Source SourceRef
	// Path and Value are set for per-field events.
	Path  string
	Value any
	// Keys lists the top-level keys of a loaded source.
	Keys []string
	// Diff is set for merge steps.
	Diff *Diff
	// Err is the load failure of a skipped source.
	Err error
}

// Sink receives engine events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f.
func (f SinkFunc) Emit(e Event) {
	f(e)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// LogSink writes events to a logger. Skips go out at warn level, everything
// else at debug.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a sink over logger, or over the default logger when nil.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs e.
func (s *LogSink) Emit(e Event) {
	l := s.logger
	if l == nil {
		l = log.Default()
	}

	switch e.Kind {
	case EventSourceLoaded:
		l.Debug("Source loaded", "shape", e.Shape, "source", e.Source.Index, "kind", e.Source.Kind, "file", fileOrEnv(e.Source), "keys", e.Keys)
	case EventSourceSkipped:
		l.Warn("Source skipped (broken)", "shape", e.Shape, "source", e.Source.Index, "file", fileOrEnv(e.Source), "error", e.Err)
	case EventMergeStepApplied:
		l.Debug("Merge step applied", "shape", e.Shape, "source", e.Source.Index, "added", e.Diff.Added, "overwritten", e.Diff.Overwritten)
	case EventFieldOriginAssigned:
		l.Trace("Field origin assigned", "shape", e.Shape, "path", e.Path, "source", e.Source.Index, "value", e.Value)
	case EventGroupViolation:
		l.Debug("Field group partially overridden", "shape", e.Shape, "source", e.Source.Index, "path", e.Path)
	case EventConflict:
		l.Debug("Conflicting values", "shape", e.Shape, "path", e.Path)
	}
}

func fileOrEnv(ref SourceRef) string {
	if ref.File == "" {
		return "<env>"
	}
	return ref.File
}
