package loader

import (
	"bytes"
	"context"
	"os"

	"github.com/cockroachdb/errors"
	goyaml "github.com/goccy/go-yaml"
	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml/v2"
	"github.com/titanous/json5"
	yaml2 "gopkg.in/yaml.v2"
	yaml3 "gopkg.in/yaml.v3"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/tree"
)

type parseFunc func(data []byte) (any, error)

var json = jsoniter.Config{UseNumber: true}.Froze()

var parsers = map[Kind]parseFunc{
	KindYAML:   parseYAML,
	KindYAML11: parseYAML11,
	KindYAML12: parseYAML12,
	KindJSON:   parseJSON,
	KindJSON5:  parseJSON5,
	KindTOML:   parseTOML,
}

func parseYAML(data []byte) (any, error) {
	var v any
	if err := goyaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// parseYAML11 reads YAML 1.1, where yes/no/on/off are booleans.
func parseYAML11(data []byte) (any, error) {
	var v any
	if err := yaml2.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// parseYAML12 reads YAML 1.2, where only true/false are booleans.
func parseYAML12(data []byte) (any, error) {
	var v any
	if err := yaml3.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// parseJSON5 reads JSON5: comments, trailing commas, unquoted keys and
// hexadecimal numbers.
func parseJSON5(data []byte) (any, error) {
	dec := json5.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseTOML(data []byte) (any, error) {
	var v map[string]any
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// fileLoader reads a file and parses it with parse.
type fileLoader struct {
	kind  Kind
	spec  Spec
	parse parseFunc
}

func (l *fileLoader) Kind() Kind { return l.kind }

func (l *fileLoader) Load(ctx context.Context, path string) (any, error) {
	if path == "" {
		path = l.spec.File
	}
	data, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	parsed, err := l.parse(data)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errUtils.ErrParseSource), "%s %s", l.kind, path)
	}
	return finish(parsed, l.spec, path)
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Mark(err, errUtils.ErrLoadSource)
	}
	return data, nil
}

// finish normalises a parsed document, descends into the prefix, renames
// keys and expands environment references.
func finish(parsed any, spec Spec, path string) (any, error) {
	normalized := tree.Normalize(parsed)
	if normalized == nil {
		normalized = map[string]any{}
	}
	if _, ok := tree.AsMap(normalized); !ok {
		return nil, errors.Wrapf(errUtils.ErrNonMappingDocument, "file=%s root=%s", path, tree.Kind(normalized))
	}

	data := spec.renameKeys(applyPrefix(normalized, spec.Prefix))
	return ExpandTree(data, spec.ExpandEnv, LookupFromEnviron(spec.environ()))
}

// applyPrefix descends into a dotted prefix. A missing or non-mapping prefix
// yields an empty tree.
func applyPrefix(data any, prefix string) any {
	if prefix == "" {
		return data
	}
	value, ok := tree.GetPath(data, prefix)
	if !ok {
		return map[string]any{}
	}
	if _, isMap := tree.AsMap(value); !isMap {
		return map[string]any{}
	}
	return value
}
