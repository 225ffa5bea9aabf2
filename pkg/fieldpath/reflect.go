package fieldpath

import (
	"encoding"
	"reflect"
	"strings"
	"time"
)

const (
	// TagName is the struct tag read for field key names.
	TagName = "mapstructure"
	// OptionTagName is the struct tag carrying confmerge options.
	OptionTagName = "confmerge"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	timeType            = reflect.TypeFor[time.Time]()
)

// ShapeOf reflects the shape of struct type T.
func ShapeOf[T any]() *Shape {
	return ShapeFor(reflect.TypeFor[T]())
}

// ShapeFor reflects the shape of a struct type. Key names come from the
// mapstructure tag, falling back to the lower-cased field name. A field is
// required unless it is a pointer, map, slice or interface, or is tagged
// `confmerge:"optional"`. Non-struct types yield an empty shape.
func ShapeFor(t reflect.Type) *Shape {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return &Shape{}
	}
	return reflectShape(t, map[reflect.Type]bool{})
}

func reflectShape(t reflect.Type, visiting map[reflect.Type]bool) *Shape {
	shape := &Shape{Name: t.Name()}
	if t.Kind() != reflect.Struct {
		return shape
	}
	visiting[t] = true
	defer delete(visiting, t)

	shape.Fields = reflectFields(t, visiting)
	return shape
}

func reflectFields(t reflect.Type, visiting map[reflect.Type]bool) []Field {
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, squash, skip := parseTag(sf)
		if skip {
			continue
		}

		ft := sf.Type
		if squash || (sf.Anonymous && name == "" && isRecord(ft)) {
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			for _, f := range reflectFields(ft, visiting) {
				f.Index = append([]int{i}, f.Index...)
				fields = append(fields, f)
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(sf.Name)
		}

		field := Field{Name: name, Type: ft, Required: isRequired(sf), Index: []int{i}}
		if elem := recordType(ft); elem != nil && !visiting[elem] {
			field.Shape = reflectShape(elem, visiting)
		}
		fields = append(fields, field)
	}
	return fields
}

func parseTag(sf reflect.StructField) (name string, squash, skip bool) {
	tag := sf.Tag.Get(TagName)
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "squash" {
			squash = true
		}
	}
	return parts[0], squash, false
}

func isRequired(sf reflect.StructField) bool {
	for _, opt := range strings.Split(sf.Tag.Get(OptionTagName), ",") {
		if strings.TrimSpace(opt) == "optional" {
			return false
		}
	}
	switch sf.Type.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return false
	default:
		return true
	}
}

// recordType returns the struct type behind t when t decodes as a nested record.
func recordType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if !isRecord(t) {
		return nil
	}
	return t
}

func isRecord(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	return !reflect.PointerTo(t).Implements(textUnmarshalerType)
}
