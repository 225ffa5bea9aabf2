// Package decode turns merged raw trees into typed values.
package decode

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// ListSeparator splits string values decoded into slices.
const ListSeparator = ","

func newDecoder(result any) (*mapstructure.Decoder, error) {
	return mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           result,
		TagName:          fieldpath.TagName,
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(ListSeparator),
		),
	})
}

// Decode builds a T from a raw tree. Scalars are coerced weakly, so "8080"
// decodes into an int and "30s" into a time.Duration.
func Decode[T any](data any) (*T, error) {
	out := new(T)
	decoder, err := newDecoder(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUtils.ErrDecode, err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("%w: %w", errUtils.ErrDecode, err)
	}
	return out, nil
}

// InvalidPaths returns the sorted paths of the values in data that cannot be
// decoded into the type of their field. Only typed leaves and nested
// records are checked; a record given a non-mapping value is reported at
// the record's path.
func InvalidPaths(shape *fieldpath.Shape, data any) []string {
	if shape == nil {
		return nil
	}
	var invalid []string
	collectInvalid(shape, data, "", &invalid)
	sort.Strings(invalid)
	return invalid
}

func collectInvalid(shape *fieldpath.Shape, data any, prefix string, invalid *[]string) {
	m, ok := tree.AsMap(data)
	if !ok {
		return
	}
	for _, field := range shape.Fields {
		value, present := m[field.Name]
		if !present {
			continue
		}
		path := tree.AppendKey(prefix, field.Name)
		if field.IsNested() {
			if value == nil && !field.Required {
				continue
			}
			if _, isMap := tree.AsMap(value); !isMap {
				*invalid = append(*invalid, path)
				continue
			}
			collectInvalid(field.Shape, value, path, invalid)
			continue
		}
		if field.Type == nil || value == nil {
			continue
		}
		if !decodes(field.Type, value) {
			*invalid = append(*invalid, path)
		}
	}
}

// decodes reports whether value can be decoded into a fresh typ.
func decodes(typ reflect.Type, value any) bool {
	decoder, err := newDecoder(reflect.New(typ).Interface())
	if err != nil {
		return false
	}
	return decoder.Decode(value) == nil
}

// FilterInvalid removes the values InvalidPaths reports. When allowed is non-nil
// only invalid paths at or below one of the allowed paths are removed; the
// rest are left for Decode to reject. It returns the cleaned tree and the
// removed paths.
func FilterInvalid(shape *fieldpath.Shape, data any, allowed []string) (any, []string) {
	invalid := InvalidPaths(shape, data)
	if allowed != nil {
		invalid = lo.Filter(invalid, func(path string, _ int) bool {
			return lo.SomeBy(allowed, func(prefix string) bool {
				return tree.HasPathPrefix(path, prefix)
			})
		})
	}
	if len(invalid) == 0 {
		return data, nil
	}
	return tree.Without(data, invalid...), invalid
}

// DefaultedPaths returns the sorted leaf paths that defaults gives a
// non-zero value. defaults is a struct (or pointer to one) matching shape,
// or a raw tree.
func DefaultedPaths(shape *fieldpath.Shape, defaults any) []string {
	if m, ok := defaults.(map[string]any); ok {
		return tree.LeafPaths(m)
	}
	if m, ok := defaults.(*map[string]any); ok && m != nil {
		return tree.LeafPaths(*m)
	}
	if shape == nil {
		return nil
	}
	var paths []string
	collectDefaulted(shape, reflect.ValueOf(defaults), "", &paths)
	sort.Strings(paths)
	return paths
}

func collectDefaulted(shape *fieldpath.Shape, rv reflect.Value, prefix string, paths *[]string) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	for _, field := range shape.Fields {
		if field.Index == nil {
			continue
		}
		fv, err := rv.FieldByIndexErr(field.Index)
		if err != nil {
			continue
		}
		path := tree.AppendKey(prefix, field.Name)
		if field.IsNested() {
			collectDefaulted(field.Shape, fv, path, paths)
			continue
		}
		if !fv.IsZero() {
			*paths = append(*paths, path)
		}
	}
}

// ApplyDefaults fills the zero-valued fields of dst from defaults.
func ApplyDefaults[T any](dst *T, defaults T) error {
	if err := mergo.Merge(dst, defaults); err != nil {
		return fmt.Errorf("%w: defaults: %w", errUtils.ErrDecode, err)
	}
	return nil
}
