// Package tree holds helpers for raw configuration trees: the format-agnostic
// values produced by parsers before any type coercion. A raw tree is nil, a
// bool, an int64, a float64, a string, a []any or a map[string]any; Normalize
// converts arbitrary parser output into that set.
package tree

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	errUtils "github.com/cloudposse/confmerge/errors"
)

// Leaf is a non-mapping value found at Path inside a tree.
type Leaf struct {
	Path  string
	Value any
}

// AsMap returns v as a mapping.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// AsList returns v as a sequence.
func AsList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

// Equal compares two raw trees structurally.
func Equal(a, b any) bool {
	return cmp.Equal(a, b)
}

// Clone deep-copies mappings and sequences. Scalars are shared.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = Clone(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = Clone(child)
		}
		return out
	default:
		return val
	}
}

// Get walks segments from the root of v.
func Get(v any, segments []string) (any, bool) {
	current := v
	for _, segment := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// GetPath is Get for a dotted path.
func GetPath(v any, path string) (any, bool) {
	return Get(v, SplitPath(path))
}

// Set stores value at segments inside data, creating intermediate maps as needed.
// Precondition: data must be a non-nil map.
func Set(data map[string]any, segments []string, value any) error {
	if len(segments) == 0 {
		return errUtils.ErrEmptyPath
	}

	current := data
	for i := 0; i < len(segments)-1; i++ {
		key := segments[i]

		next, exists := current[key]
		if !exists {
			newMap := make(map[string]any)
			current[key] = newMap
			current = newMap
			continue
		}

		nextMap, ok := next.(map[string]any)
		if !ok {
			return errors.Wrapf(errUtils.ErrCannotNavigatePath, "path=%s field=%s", JoinPath(segments...), key)
		}
		current = nextMap
	}

	current[segments[len(segments)-1]] = value
	return nil
}

// Without returns a copy of v with every dotted path in paths removed.
// Paths that do not exist are ignored. Parents left empty are kept.
func Without(v any, paths ...string) any {
	if len(paths) == 0 {
		return v
	}
	out := Clone(v)
	root, ok := out.(map[string]any)
	if !ok {
		return out
	}
	for _, path := range paths {
		segments := SplitPath(path)
		if len(segments) == 0 {
			continue
		}
		parent, ok := Get(root, segments[:len(segments)-1])
		if !ok {
			continue
		}
		if m, ok := parent.(map[string]any); ok {
			delete(m, segments[len(segments)-1])
		}
	}
	return out
}

// Leaves lists every non-mapping value below v, depth first in sorted key order.
// Empty mappings contribute nothing.
func Leaves(v any) []Leaf {
	var leaves []Leaf
	collectLeaves(v, "", &leaves)
	return leaves
}

func collectLeaves(v any, prefix string, leaves *[]Leaf) {
	m, ok := v.(map[string]any)
	if !ok {
		if prefix != "" {
			*leaves = append(*leaves, Leaf{Path: prefix, Value: v})
		}
		return
	}
	for _, key := range SortedKeys(m) {
		collectLeaves(m[key], AppendKey(prefix, key), leaves)
	}
}

// LeafPaths returns the dotted paths of Leaves(v).
func LeafPaths(v any) []string {
	return lo.Map(Leaves(v), func(l Leaf, _ int) string { return l.Path })
}

// Kind names the raw value kind of v for diagnostics.
func Kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64, int:
		return "integer"
	case float64:
		return "float"
	case string:
		return "string"
	case []any:
		return "sequence"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Format renders a scalar or short value for error messages.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
