package loader

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/schema"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// keyRenamer rewrites the keys of a loaded tree to field names.
type keyRenamer struct {
	style schema.NameStyle
	// aliases maps a mapping path to field name -> alias keys, in the order
	// they are tried.
	aliases map[string]map[string][]string
}

func newKeyRenamer(style schema.NameStyle, mapping map[string][]string) (*keyRenamer, error) {
	r := &keyRenamer{
		style:   style,
		aliases: map[string]map[string][]string{},
	}
	for target, names := range mapping {
		p, err := fieldpath.Parse(target)
		if err != nil {
			return nil, errors.Wrapf(errUtils.ErrInvalidOption, "field_mapping: %v", err)
		}
		segments := p.Segments()
		parent := tree.JoinPath(segments[:len(segments)-1]...)
		field := segments[len(segments)-1]

		if r.aliases[parent] == nil {
			r.aliases[parent] = map[string][]string{}
		}
		for _, alias := range names {
			if alias == "" {
				return nil, errors.Wrapf(errUtils.ErrInvalidOption, "field_mapping: empty alias for %q", target)
			}
			r.aliases[parent][field] = append(r.aliases[parent][field], alias)
		}
	}
	return r, nil
}

func (r *keyRenamer) active() bool {
	return r != nil && (r.style != "" || len(r.aliases) > 0)
}

// rename returns a copy of v with aliases resolved and keys converted from
// the source style. A field already present keeps its value and the alias
// key is left in place. Aliases do not apply inside lists.
func (r *keyRenamer) rename(v any, path string, aliased bool) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		claimed := map[string]bool{}
		keys := tree.SortedKeys(node)

		var fields map[string][]string
		if aliased {
			fields = r.aliases[path]
		}
		for field, aliases := range fields {
			if r.findKey(keys, field) != "" {
				continue
			}
			for _, alias := range aliases {
				if key := r.findKey(keys, alias); key != "" && !claimed[key] {
					out[field] = r.rename(node[key], tree.AppendKey(path, field), aliased)
					claimed[key] = true
					break
				}
			}
		}

		// Keys already in canonical form win over converted ones.
		for _, pass := range []bool{true, false} {
			for _, key := range keys {
				if claimed[key] {
					continue
				}
				name := r.convert(key)
				if (name == key) != pass {
					continue
				}
				if _, taken := out[name]; taken {
					name = key
				}
				if _, taken := out[name]; taken {
					continue
				}
				out[name] = r.rename(node[key], tree.AppendKey(path, name), aliased)
			}
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = r.rename(item, "", false)
		}
		return out
	default:
		return v
	}
}

// findKey returns the key written as name, or else the first key that
// converts to name. It returns "" when there is none.
func (r *keyRenamer) findKey(keys []string, name string) string {
	for _, key := range keys {
		if key == name {
			return key
		}
	}
	for _, key := range keys {
		if r.convert(key) == name {
			return key
		}
	}
	return ""
}

// convert maps a key written in the source style to lower_snake.
func (r *keyRenamer) convert(key string) string {
	switch r.style {
	case schema.NameStyleUpperSnake:
		return strings.ToLower(key)
	case schema.NameStyleLowerKebab, schema.NameStyleUpperKebab:
		return strings.ReplaceAll(strings.ToLower(key), "-", "_")
	case schema.NameStyleLowerCamel, schema.NameStyleUpperCamel:
		return strcase.ToSnake(key)
	default:
		return key
	}
}
