package load

import (
	"github.com/cloudposse/confmerge/pkg/loader"
	"github.com/cloudposse/confmerge/pkg/merge"
	"github.com/cloudposse/confmerge/pkg/schema"
)

// DefaultConcurrency bounds how many sources are parsed at once.
const DefaultConcurrency = 8

// SourceOptions describes one source. An empty File reads the process
// environment.
type SourceOptions struct {
	File string
	// Kind overrides the kind inferred from File.
	Kind         loader.Kind
	Prefix       string
	SplitSymbols string
	// ExpandEnv overrides Options.ExpandEnv.
	ExpandEnv schema.ExpandEnvMode
	// NameStyle is the key convention of the source.
	NameStyle schema.NameStyle
	// FieldMapping maps dotted field paths to alias keys. Typed loads reject
	// paths the target type does not have.
	FieldMapping map[string][]string
	// SkipIfBroken overrides Options.SkipBrokenSources.
	SkipIfBroken *bool
	// SkipInvalid overrides Options.SkipInvalidFields.
	SkipInvalid *schema.SkipInvalid
	// Environ replaces os.Environ for env sources and expansion.
	Environ func() []string
	// Loader replaces the loader resolved from File and Kind. Its output is
	// merged as returned, without NameStyle or FieldMapping.
	Loader loader.Loader
}

// Options configures Load and LoadTree.
type Options[T any] struct {
	Sources     []SourceOptions
	Strategy    schema.MergeStrategy
	FieldMerges []merge.FieldRule
	FieldGroups []merge.FieldGroup

	SkipBrokenSources bool
	SkipInvalidFields *schema.SkipInvalid
	ExpandEnv         schema.ExpandEnvMode

	// Defaults fills the zero-valued fields of the result.
	Defaults *T
	// Debug returns the merge report, also attached to errors.
	Debug bool
	// Sink receives merge trace events. Defaults to a merge.LogSink.
	Sink merge.Sink
	// Concurrency bounds parallel parsing. Defaults to DefaultConcurrency.
	Concurrency int
}

// File returns options for a file source.
func File(path string) SourceOptions {
	return SourceOptions{File: path}
}

// Env returns options for the process environment filtered by prefix.
func Env(prefix string) SourceOptions {
	return SourceOptions{Kind: loader.KindEnv, Prefix: prefix}
}

func (s SourceOptions) spec(expand schema.ExpandEnvMode) loader.Spec {
	if s.ExpandEnv != "" {
		expand = s.ExpandEnv
	}
	return loader.Spec{
		File:         s.File,
		Kind:         s.Kind,
		Prefix:       s.Prefix,
		SplitSymbols: s.SplitSymbols,
		ExpandEnv:    expand,
		NameStyle:    s.NameStyle,
		FieldMapping: s.FieldMapping,
		Environ:      s.Environ,
	}
}

func (s SourceOptions) skipInvalid(global *schema.SkipInvalid) *schema.SkipInvalid {
	if s.SkipInvalid != nil {
		return s.SkipInvalid
	}
	return global
}

func (o Options[T]) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

func (o Options[T]) sink() merge.Sink {
	if o.Sink != nil {
		return o.Sink
	}
	return merge.NewLogSink(nil)
}
