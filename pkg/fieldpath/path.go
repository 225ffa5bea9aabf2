package fieldpath

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// Path identifies a field of a shape.
//
// A bound path was validated against its shape when it was built. An unbound
// path only carries the name of the type it targets and its segments; it is
// validated by Resolve once the shape is known.
type Path struct {
	shape    *Shape
	typeName string
	segments []string
}

// Of builds a bound path, failing when shape has no such field.
func Of(shape *Shape, segments ...string) (Path, error) {
	p := Path{typeName: shapeName(shape), segments: slices.Clone(segments)}
	return p.Resolve(shape)
}

// MustOf is Of for package-level declarations. It panics on error.
func MustOf(shape *Shape, segments ...string) Path {
	p, err := Of(shape, segments...)
	if err != nil {
		panic(err)
	}
	return p
}

// Deferred builds an unbound path targeting the named type.
func Deferred(typeName, path string) Path {
	return Path{typeName: typeName, segments: tree.SplitPath(path)}
}

// Parse builds an unbound path that resolves against any shape.
func Parse(path string) (Path, error) {
	segments := tree.SplitPath(strings.TrimSpace(path))
	if len(segments) == 0 {
		return Path{}, errors.Wrapf(errUtils.ErrEmptyPath, "path=%q", path)
	}
	return Path{segments: segments}, nil
}

// IsBound reports whether the path has been validated against a shape.
func (p Path) IsBound() bool {
	return p.shape != nil
}

// TypeName is the name of the type the path targets, if any.
func (p Path) TypeName() string {
	return p.typeName
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	return slices.Clone(p.segments)
}

// String renders the canonical dotted path.
func (p Path) String() string {
	return tree.JoinPath(p.segments...)
}

// Equal compares segment sequences.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p.segments, other.segments)
}

// Resolve validates p against shape and returns the bound path.
func (p Path) Resolve(shape *Shape) (Path, error) {
	if len(p.segments) == 0 {
		return Path{}, errUtils.ErrEmptyPath
	}
	if p.shape == shape && shape != nil {
		return p, nil
	}
	name := shapeName(shape)
	if p.typeName != "" && p.typeName != name {
		return Path{}, &UnknownFieldError{Shape: name, TypeName: p.typeName, Path: p.String()}
	}

	current := shape
	for i, segment := range p.segments {
		field, ok := current.Field(segment)
		if !ok {
			return Path{}, &UnknownFieldError{Shape: name, Path: p.String(), Segment: segment}
		}
		if i < len(p.segments)-1 && !field.IsNested() {
			return Path{}, &UnknownFieldError{Shape: name, Path: p.String(), Segment: p.segments[i+1]}
		}
		current = field.Shape
	}

	return Path{shape: shape, typeName: name, segments: slices.Clone(p.segments)}, nil
}

// Expand resolves p and, when it names a nested record, returns all of its
// leaf descendants in declaration order. A leaf path expands to itself.
func Expand(shape *Shape, p Path) ([]Path, error) {
	bound, err := p.Resolve(shape)
	if err != nil {
		return nil, err
	}
	field, _ := Lookup(shape, bound.segments)
	if !field.IsNested() {
		return []Path{bound}, nil
	}
	var out []Path
	collectLeaves(shape, field.Shape, bound.segments, &out)
	return out, nil
}

// ExpandAll expands every path, concatenating results in input order and
// dropping repeated leaves.
func ExpandAll(shape *Shape, paths []Path) ([]Path, error) {
	var out []Path
	seen := map[string]bool{}
	for _, p := range paths {
		leaves, err := Expand(shape, p)
		if err != nil {
			return nil, err
		}
		for _, leaf := range leaves {
			key := leaf.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, leaf)
		}
	}
	return out, nil
}

// Strings renders paths as dotted strings.
func Strings(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

func shapeName(shape *Shape) string {
	if shape == nil {
		return ""
	}
	return shape.Name
}
