package fieldpath

import (
	"fmt"

	errUtils "github.com/cloudposse/confmerge/errors"
)

// UnknownFieldError reports a path that does not exist in a shape.
type UnknownFieldError struct {
	Shape string
	Path  string
	// Segment is the first segment that could not be found.
	Segment string
	// TypeName is set when the path targets a different type than Shape.
	TypeName string
}

func (e *UnknownFieldError) Error() string {
	if e.TypeName != "" {
		return fmt.Sprintf("%s: path %q targets type %s, not %s", errUtils.ErrUnknownField, e.Path, e.TypeName, e.Shape)
	}
	return fmt.Sprintf("%s: %q in %s (path %q)", errUtils.ErrUnknownField, e.Segment, e.Shape, e.Path)
}

func (e *UnknownFieldError) Unwrap() error {
	return errUtils.ErrUnknownField
}
