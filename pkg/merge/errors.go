package merge

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/schema"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// LoadError is a source that could not be read or parsed and was not
// allowed to be skipped.
type LoadError struct {
	Source SourceRef
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", errUtils.ErrLoadSource, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == errUtils.ErrLoadSource }

// AllSourcesFailedError is returned when every source was broken and skipped.
type AllSourcesFailedError struct {
	Shape string
	Errs  []*LoadError
}

func (e *AllSourcesFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: all %d source(s) failed to load", errUtils.ErrAllSourcesFailed, shapeLabel(e.Shape), len(e.Errs))
	for _, err := range e.Errs {
		fmt.Fprintf(&b, "\n  %s: %v", err.Source, err.Err)
	}
	return b.String()
}

func (e *AllSourcesFailedError) Is(target error) bool { return target == errUtils.ErrAllSourcesFailed }

// MergeConflictError lists every path whose sources disagree.
type MergeConflictError struct {
	Shape     string
	Conflicts []Conflict
}

func (e *MergeConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%d)", errUtils.ErrMergeConflict, shapeLabel(e.Shape), len(e.Conflicts))
	for _, c := range e.Conflicts {
		values := lo.Map(c.Values, func(sv SourceValue, _ int) string {
			return fmt.Sprintf("%s = %s", sv.Source, tree.Format(sv.Value))
		})
		fmt.Fprintf(&b, "\n  %s: %s", c.Path, strings.Join(values, ", "))
	}
	return b.String()
}

func (e *MergeConflictError) Is(target error) bool { return target == errUtils.ErrMergeConflict }

// Paths returns the conflicting paths.
func (e *MergeConflictError) Paths() []string {
	return lo.Map(e.Conflicts, func(c Conflict, _ int) string { return c.Path })
}

// FieldGroupError lists every partially overridden field group.
type FieldGroupError struct {
	Shape      string
	Violations []GroupViolation
}

func (e *FieldGroupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%d)", errUtils.ErrFieldGroup, shapeLabel(e.Shape), len(e.Violations))
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n  field group (%s) partially overridden in source %d", strings.Join(v.Group, ", "), v.Source.Index)
		fmt.Fprintf(&b, "\n    changed:   %s", formatAttributions(v.Changed))
		fmt.Fprintf(&b, "\n    unchanged: %s", formatAttributions(v.Unchanged))
	}
	return b.String()
}

func (e *FieldGroupError) Is(target error) bool { return target == errUtils.ErrFieldGroup }

func formatAttributions(attributions []Attribution) string {
	parts := lo.Map(attributions, func(a Attribution, _ int) string {
		return fmt.Sprintf("%s (from %s)", a.Path, a.SourceString())
	})
	return strings.Join(parts, ", ")
}

// TypeMismatchError is a field strategy applied to values it cannot combine.
type TypeMismatchError struct {
	Path     string
	Strategy schema.FieldMergeStrategy
	Base     any
	Incoming any
}

func (e *TypeMismatchError) Error() string {
	want := "two numbers or two strings"
	if e.Strategy.IsList() {
		want = "two sequences"
	}
	return fmt.Sprintf("%s: %s on %q requires %s, got %s and %s",
		errUtils.ErrTypeMismatch, e.Strategy, e.Path, want, tree.Kind(e.Base), tree.Kind(e.Incoming))
}

func (e *TypeMismatchError) Is(target error) bool { return target == errUtils.ErrTypeMismatch }

// MissingField is a required leaf absent from the merged tree because every
// source that supplied it had an invalid value.
type MissingField struct {
	Path      string
	InvalidIn []SourceRef
}

// MissingFieldsError lists required leaves lost to skipped invalid values.
type MissingFieldsError struct {
	Shape  string
	Fields []MissingField
}

func (e *MissingFieldsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%d)", errUtils.ErrMissingRequiredField, shapeLabel(e.Shape), len(e.Fields))
	for _, f := range e.Fields {
		refs := lo.Map(f.InvalidIn, func(r SourceRef, _ int) string { return r.String() })
		fmt.Fprintf(&b, "\n  %s: missing required field (invalid in: %s)", f.Path, strings.Join(refs, ", "))
	}
	return b.String()
}

func (e *MissingFieldsError) Is(target error) bool { return target == errUtils.ErrMissingRequiredField }

func shapeLabel(shape string) string {
	if shape == "" {
		return "config"
	}
	return shape
}
