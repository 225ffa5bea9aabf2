package loader

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/schema"
)

// envRefPattern matches, in order: $$, %%, ${VAR} or ${VAR:-default}, $VAR and %VAR%.
var envRefPattern = regexp.MustCompile(`\$\$|%%|\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)|%([A-Za-z_][A-Za-z0-9_]*)%`)

const defaultSeparator = ":-"

// LookupFunc resolves an environment variable.
type LookupFunc func(name string) (string, bool)

// LookupFromEnviron builds a LookupFunc over KEY=VALUE pairs.
func LookupFromEnviron(environ []string) LookupFunc {
	values := environMap(environ)
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

// MissingEnvVarsError lists variables referenced in strict mode that are not set.
type MissingEnvVarsError struct {
	Names []string
}

func (e *MissingEnvVarsError) Error() string {
	return fmt.Sprintf("%s: %s", errUtils.ErrMissingEnvVar, strings.Join(e.Names, ", "))
}

func (e *MissingEnvVarsError) Is(target error) bool { return target == errUtils.ErrMissingEnvVar }

// ExpandString expands variable references in s.
//
// In default mode unknown references are left as written. In strict mode
// they expand to "" and are reported. Disabled mode returns s unchanged.
// $$ and %% always collapse to $ and %.
func ExpandString(s string, mode schema.ExpandEnvMode, lookup LookupFunc) (string, error) {
	if mode == schema.ExpandEnvDisabled {
		return s, nil
	}
	e := &expander{mode: mode, lookup: lookup}
	out := e.expand(s)
	if len(e.missing) > 0 {
		return "", &MissingEnvVarsError{Names: uniqueSorted(e.missing)}
	}
	return out, nil
}

// ExpandTree expands every string scalar of a raw tree. In strict mode all
// missing variables across the tree are reported in one error.
func ExpandTree(v any, mode schema.ExpandEnvMode, lookup LookupFunc) (any, error) {
	if mode == schema.ExpandEnvDisabled {
		return v, nil
	}
	e := &expander{mode: mode, lookup: lookup}
	out := e.walk(v)
	if len(e.missing) > 0 {
		return nil, &MissingEnvVarsError{Names: uniqueSorted(e.missing)}
	}
	return out, nil
}

type expander struct {
	mode    schema.ExpandEnvMode
	lookup  LookupFunc
	missing []string
}

func (e *expander) walk(v any) any {
	switch val := v.(type) {
	case string:
		return e.expand(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = e.walk(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = e.walk(child)
		}
		return out
	default:
		return v
	}
}

func (e *expander) expand(s string) string {
	matches := envRefPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		b.WriteString(e.replace(s, m))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// replace resolves one match; m holds submatch index pairs.
func (e *expander) replace(s string, m []int) string {
	full := s[m[0]:m[1]]
	switch full {
	case "$$":
		return "$"
	case "%%":
		return "%"
	}

	switch {
	case m[2] >= 0:
		content := s[m[2]:m[3]]
		if name, fallback, ok := strings.Cut(content, defaultSeparator); ok {
			if value, found := e.lookup(name); found {
				return value
			}
			return e.expand(fallback)
		}
		return e.resolve(content, full)
	case m[4] >= 0:
		return e.resolve(s[m[4]:m[5]], full)
	default:
		return e.resolve(s[m[6]:m[7]], full)
	}
}

func (e *expander) resolve(name, full string) string {
	if value, ok := e.lookup(name); ok {
		return value
	}
	if e.mode == schema.ExpandEnvStrict {
		e.missing = append(e.missing, name)
		return ""
	}
	return full
}

func uniqueSorted(names []string) []string {
	out := lo.Uniq(names)
	sort.Strings(out)
	return out
}
