package schema

import (
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/cloudposse/confmerge/errors"
)

// MergeStrategy is the default policy applied to every leaf that has no field rule.
type MergeStrategy string

const (
	MergeStrategyLastWins        MergeStrategy = "last_wins"
	MergeStrategyFirstWins       MergeStrategy = "first_wins"
	MergeStrategyRaiseOnConflict MergeStrategy = "raise_on_conflict"
)

// MergeStrategies lists every MergeStrategy in documentation order.
var MergeStrategies = []MergeStrategy{
	MergeStrategyLastWins,
	MergeStrategyFirstWins,
	MergeStrategyRaiseOnConflict,
}

// ParseMergeStrategy accepts names case-insensitively; "-" is treated as "_".
// An empty name yields last_wins.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	if s == "" {
		return MergeStrategyLastWins, nil
	}
	normalized := MergeStrategy(normalizeName(s))
	for _, strategy := range MergeStrategies {
		if strategy == normalized {
			return strategy, nil
		}
	}
	return "", errors.Wrapf(errUtils.ErrUnknownMergeStrategy, "%q", s)
}

// FieldMergeStrategy overrides the global strategy for the leaves under one path.
type FieldMergeStrategy string

const (
	FieldMergeFirstWins     FieldMergeStrategy = "first_wins"
	FieldMergeLastWins      FieldMergeStrategy = "last_wins"
	FieldMergeAppend        FieldMergeStrategy = "append"
	FieldMergeAppendUnique  FieldMergeStrategy = "append_unique"
	FieldMergePrepend       FieldMergeStrategy = "prepend"
	FieldMergePrependUnique FieldMergeStrategy = "prepend_unique"
	FieldMergeMax           FieldMergeStrategy = "max"
	FieldMergeMin           FieldMergeStrategy = "min"
)

// FieldMergeStrategies lists every FieldMergeStrategy in documentation order.
var FieldMergeStrategies = []FieldMergeStrategy{
	FieldMergeFirstWins,
	FieldMergeLastWins,
	FieldMergeAppend,
	FieldMergeAppendUnique,
	FieldMergePrepend,
	FieldMergePrependUnique,
	FieldMergeMax,
	FieldMergeMin,
}

// ParseFieldMergeStrategy accepts names case-insensitively; "-" is treated as "_".
func ParseFieldMergeStrategy(s string) (FieldMergeStrategy, error) {
	normalized := FieldMergeStrategy(normalizeName(s))
	for _, strategy := range FieldMergeStrategies {
		if strategy == normalized {
			return strategy, nil
		}
	}
	return "", errors.Wrapf(errUtils.ErrUnknownFieldMergeStrategy, "%q", s)
}

// IsList reports whether the strategy combines two sequences.
func (s FieldMergeStrategy) IsList() bool {
	switch s {
	case FieldMergeAppend, FieldMergeAppendUnique, FieldMergePrepend, FieldMergePrependUnique:
		return true
	}
	return false
}

// IsOrdered reports whether the strategy compares two scalars.
func (s FieldMergeStrategy) IsOrdered() bool {
	return s == FieldMergeMax || s == FieldMergeMin
}

// ExpandEnvMode controls expansion of $VAR references inside string values.
type ExpandEnvMode string

const (
	// ExpandEnvDefault replaces known variables and leaves unknown references untouched.
	ExpandEnvDefault ExpandEnvMode = "default"
	// ExpandEnvStrict fails when a referenced variable is not set.
	ExpandEnvStrict ExpandEnvMode = "strict"
	// ExpandEnvDisabled leaves strings as written.
	ExpandEnvDisabled ExpandEnvMode = "disabled"
)

// ParseExpandEnvMode validates a mode name. An empty name yields default.
func ParseExpandEnvMode(s string) (ExpandEnvMode, error) {
	switch mode := ExpandEnvMode(strings.ToLower(s)); mode {
	case "":
		return ExpandEnvDefault, nil
	case ExpandEnvDefault, ExpandEnvStrict, ExpandEnvDisabled:
		return mode, nil
	}
	return "", errors.Wrapf(errUtils.ErrInvalidOption, "expand_env_vars: %q", s)
}

// NameStyle is the key naming convention a source is written in. Keys are
// converted to lower_snake before merging.
type NameStyle string

const (
	NameStyleLowerSnake NameStyle = "lower_snake"
	NameStyleUpperSnake NameStyle = "upper_snake"
	NameStyleLowerCamel NameStyle = "lower_camel"
	NameStyleUpperCamel NameStyle = "upper_camel"
	NameStyleLowerKebab NameStyle = "lower_kebab"
	NameStyleUpperKebab NameStyle = "upper_kebab"
)

// NameStyles lists every supported NameStyle.
var NameStyles = []NameStyle{
	NameStyleLowerSnake,
	NameStyleUpperSnake,
	NameStyleLowerCamel,
	NameStyleUpperCamel,
	NameStyleLowerKebab,
	NameStyleUpperKebab,
}

// ParseNameStyle validates a style name. An empty name means keys are used
// as written.
func ParseNameStyle(s string) (NameStyle, error) {
	if s == "" {
		return "", nil
	}
	normalized := NameStyle(normalizeName(s))
	for _, style := range NameStyles {
		if style == normalized {
			return style, nil
		}
	}
	return "", errors.Wrapf(errUtils.ErrInvalidOption, "name_style: %q", s)
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
