package merge

import (
	"fmt"
)

// SourceRef identifies a source in reports and errors.
type SourceRef struct {
	Index int    `json:"index" yaml:"index"`
	Kind  string `json:"kind" yaml:"kind"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// String renders the reference as used in error messages.
func (r SourceRef) String() string {
	if r.File == "" {
		return fmt.Sprintf("source %d (%s)", r.Index, r.Kind)
	}
	return fmt.Sprintf("source %d (%s: %s)", r.Index, r.Kind, r.File)
}

// Source is one parsed input handed to the engine, in merge order.
type Source struct {
	Index int
	Kind  string
	File  string

	// Data is the raw tree. It is ignored when Err is set.
	Data any
	// Err is the parse or read failure, if any.
	Err error

	// SkipIfBroken overrides the engine-wide skip flag for this source.
	SkipIfBroken *bool

	// SkippedFields lists leaf paths that were removed from Data because
	// their values were invalid for the target shape.
	SkippedFields []string
}

// Ref returns the identity of s.
func (s *Source) Ref() SourceRef {
	return SourceRef{Index: s.Index, Kind: s.Kind, File: s.File}
}

// Broken reports whether the source failed to load.
func (s *Source) Broken() bool {
	return s.Err != nil
}

func (s *Source) shouldSkip(global bool) bool {
	if s.SkipIfBroken != nil {
		return *s.SkipIfBroken
	}
	return global
}
