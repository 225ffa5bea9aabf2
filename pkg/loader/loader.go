// Package loader parses configuration sources into raw trees.
package loader

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=$GOFILE -destination=mock_$GOFILE -package=$GOPACKAGE

import (
	"context"
	"os"

	"github.com/cloudposse/confmerge/pkg/schema"
)

// DefaultSplitSymbols separates nesting levels in environment variable names.
const DefaultSplitSymbols = "__"

// Loader reads one source and returns its raw tree: a map[string]any whose
// values are limited to the types produced by tree.Normalize.
type Loader interface {
	Kind() Kind
	Load(ctx context.Context, path string) (any, error)
}

// Spec describes how to load a source.
type Spec struct {
	// File is the source path. Empty means the process environment.
	File string
	// Kind overrides the kind inferred from File.
	Kind Kind
	// Prefix is a dotted path to descend into for file sources, or the
	// variable name prefix for env sources.
	Prefix string
	// SplitSymbols separates nesting levels in variable names.
	SplitSymbols string
	ExpandEnv    schema.ExpandEnvMode
	// NameStyle is the key convention of the source. Keys are converted to
	// lower_snake after the prefix is applied.
	NameStyle schema.NameStyle
	// FieldMapping maps dotted field paths to alias keys.
	FieldMapping map[string][]string
	// Environ returns KEY=VALUE pairs. Defaults to os.Environ.
	Environ func() []string

	names *keyRenamer
}

func (s Spec) environ() []string {
	if s.Environ != nil {
		return s.Environ()
	}
	return os.Environ()
}

func (s Spec) renameKeys(data any) any {
	if !s.names.active() {
		return data
	}
	return s.names.rename(data, "", true)
}

func (s Spec) splitSymbols() string {
	if s.SplitSymbols == "" {
		return DefaultSplitSymbols
	}
	return s.SplitSymbols
}

// ResolveKind returns spec.Kind, or the kind inferred from spec.File.
func ResolveKind(spec Spec) (Kind, error) {
	if spec.Kind != "" {
		return ParseKind(string(spec.Kind))
	}
	return KindFromPath(spec.File)
}

// New returns the loader for spec.
func New(spec Spec) (Loader, error) {
	kind, err := ResolveKind(spec)
	if err != nil {
		return nil, err
	}
	mode, err := schema.ParseExpandEnvMode(string(spec.ExpandEnv))
	if err != nil {
		return nil, err
	}
	spec.ExpandEnv = mode

	style, err := schema.ParseNameStyle(string(spec.NameStyle))
	if err != nil {
		return nil, err
	}
	if spec.names, err = newKeyRenamer(style, spec.FieldMapping); err != nil {
		return nil, err
	}

	switch kind {
	case KindEnv:
		return &envLoader{spec: spec}, nil
	case KindEnvFile:
		return &envFileLoader{spec: spec}, nil
	case KindINI:
		return &fileLoader{kind: kind, spec: spec, parse: parseINI}, nil
	default:
		return &fileLoader{kind: kind, spec: spec, parse: parsers[kind]}, nil
	}
}
