package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors for configuration loading and merging.
var (
	ErrLoadSource         = errors.New("failed to load source")
	ErrParseSource        = errors.New("failed to parse source")
	ErrAllSourcesFailed   = errors.New("all sources failed to load")
	ErrNoSources          = errors.New("no sources configured")
	ErrUnknownLoaderKind  = errors.New("cannot determine loader kind")
	ErrMissingEnvVar      = errors.New("missing environment variable")
	ErrNonMappingDocument = errors.New("document root is not a mapping")

	ErrMergeConflict             = errors.New("conflicting values in multiple sources")
	ErrFieldGroup                = errors.New("field group partially overridden")
	ErrTypeMismatch              = errors.New("merge strategy applied to incompatible values")
	ErrUnknownMergeStrategy      = errors.New("unknown merge strategy")
	ErrUnknownFieldMergeStrategy = errors.New("unknown field merge strategy")
	ErrMissingRequiredField      = errors.New("missing required field")

	ErrUnknownField       = errors.New("unknown field")
	ErrEmptyPath          = errors.New("path cannot be empty")
	ErrCannotNavigatePath = errors.New("cannot navigate path: intermediate value is not a map")

	ErrDecode        = errors.New("failed to decode merged configuration")
	ErrInvalidOption = errors.New("invalid option")
	ErrInvalidFlag   = errors.New("invalid flag value")
)
