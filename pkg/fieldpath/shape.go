// Package fieldpath addresses fields of a configuration shape by dotted path.
package fieldpath

import (
	"reflect"

	"github.com/cloudposse/confmerge/pkg/tree"
)

// Field is one named member of a Shape.
type Field struct {
	Name string
	// Type is the Go type a leaf decodes into. Nil for inferred shapes.
	Type reflect.Type
	// Shape is set when the field is itself a nested record.
	Shape    *Shape
	Required bool
	// Index locates the struct field for reflect.Value.FieldByIndex. Nil
	// for shapes not built by reflection.
	Index []int
}

// IsNested reports whether the field is a nested record.
func (f Field) IsNested() bool {
	return f.Shape != nil
}

// Optional returns a copy of f that is not required.
func (f Field) Optional() Field {
	f.Required = false
	return f
}

// Typed returns a copy of f carrying the given Go type.
func (f Field) Typed(t reflect.Type) Field {
	f.Type = t
	return f
}

// Shape describes the field names and nesting of a target record.
// Fields keep declaration order.
type Shape struct {
	Name   string
	Fields []Field
}

// NewShape builds a shape by hand.
func NewShape(name string, fields ...Field) *Shape {
	return &Shape{Name: name, Fields: fields}
}

// Leaf declares a required scalar or list field.
func Leaf(name string) Field {
	return Field{Name: name, Required: true}
}

// Nested declares a required nested record field.
func Nested(name string, shape *Shape) Field {
	return Field{Name: name, Shape: shape, Required: true}
}

// Field returns the direct member called name.
func (s *Shape) Field(name string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// Lookup walks segments through nested shapes.
func Lookup(shape *Shape, segments []string) (*Field, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	current := shape
	var field *Field
	for i, segment := range segments {
		f, ok := current.Field(segment)
		if !ok {
			return nil, false
		}
		field = f
		if i < len(segments)-1 {
			if !f.IsNested() {
				return nil, false
			}
			current = f.Shape
		}
	}
	return field, true
}

// Leaves returns every leaf of shape in declaration order.
func Leaves(shape *Shape) []Path {
	var out []Path
	collectLeaves(shape, shape, nil, &out)
	return out
}

// RequiredLeaves returns the leaves that must be present after a merge.
// A leaf below an optional nested record is not required.
func RequiredLeaves(shape *Shape) []Path {
	var out []Path
	collectRequired(shape, shape, nil, &out)
	return out
}

func collectLeaves(root, shape *Shape, prefix []string, out *[]Path) {
	if shape == nil {
		return
	}
	for _, f := range shape.Fields {
		segments := appendSegment(prefix, f.Name)
		if f.IsNested() {
			collectLeaves(root, f.Shape, segments, out)
			continue
		}
		*out = append(*out, Path{shape: root, segments: segments})
	}
}

func collectRequired(root, shape *Shape, prefix []string, out *[]Path) {
	if shape == nil {
		return
	}
	for _, f := range shape.Fields {
		if !f.Required {
			continue
		}
		segments := appendSegment(prefix, f.Name)
		if f.IsNested() {
			collectRequired(root, f.Shape, segments, out)
			continue
		}
		*out = append(*out, Path{shape: root, segments: segments})
	}
}

func appendSegment(prefix []string, segment string) []string {
	out := make([]string, 0, len(prefix)+1)
	out = append(out, prefix...)
	return append(out, segment)
}

// ShapeFromTree infers a shape from one or more raw trees. Mappings become
// nested records, everything else becomes an optional leaf. Fields are
// ordered by key.
func ShapeFromTree(name string, trees ...any) *Shape {
	merged := map[string]any{}
	for _, t := range trees {
		unionKeys(merged, t)
	}
	return shapeFromMap(name, merged)
}

func unionKeys(dst map[string]any, src any) {
	m, ok := tree.AsMap(src)
	if !ok {
		return
	}
	for key, value := range m {
		child, isMap := tree.AsMap(value)
		if !isMap {
			if _, exists := dst[key]; !exists {
				dst[key] = nil
			}
			continue
		}
		existing, ok := dst[key].(map[string]any)
		if !ok {
			existing = map[string]any{}
			dst[key] = existing
		}
		unionKeys(existing, child)
	}
}

func shapeFromMap(name string, m map[string]any) *Shape {
	shape := &Shape{Name: name}
	for _, key := range tree.SortedKeys(m) {
		if child, ok := m[key].(map[string]any); ok {
			shape.Fields = append(shape.Fields, Field{Name: key, Shape: shapeFromMap(key, child)})
			continue
		}
		shape.Fields = append(shape.Fields, Field{Name: key})
	}
	return shape
}
