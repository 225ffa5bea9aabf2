package loader

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	errUtils "github.com/cloudposse/confmerge/errors"
)

func environMap(environ []string) map[string]string {
	return env.ToMap(environ)
}

// envLoader reads the process environment. Variables are filtered by the
// prefix, stripped of it, lower-cased and split into nesting levels.
type envLoader struct {
	spec Spec
}

func (l *envLoader) Kind() Kind { return KindEnv }

func (l *envLoader) Load(ctx context.Context, _ string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vars := environMap(l.spec.environ())
	return ExpandTree(l.spec.renameKeys(nestVariables(vars, l.spec.Prefix, l.spec.splitSymbols())), l.spec.ExpandEnv, LookupFromEnviron(l.spec.environ()))
}

// envFileLoader reads a dotenv file and nests it like envLoader.
type envFileLoader struct {
	spec Spec
}

func (l *envFileLoader) Kind() Kind { return KindEnvFile }

func (l *envFileLoader) Load(ctx context.Context, path string) (any, error) {
	if path == "" {
		path = l.spec.File
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Mark(err, errUtils.ErrLoadSource)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errUtils.ErrParseSource), "%s %s", KindEnvFile, path)
	}
	return ExpandTree(l.spec.renameKeys(nestVariables(vars, l.spec.Prefix, l.spec.splitSymbols())), l.spec.ExpandEnv, LookupFromEnviron(l.spec.environ()))
}

// nestVariables builds a tree from flat variables. With prefix "APP_" and
// split symbols "__", APP_DB__HOST=x becomes {"db": {"host": "x"}}.
// When a name is both a value and a parent, the nested mapping wins.
func nestVariables(vars map[string]string, prefix, split string) map[string]any {
	out := map[string]any{}
	for _, name := range sortedNames(vars) {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		if key == "" {
			continue
		}

		parts := strings.Split(key, split)
		target := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := target[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				target[part] = next
			}
			target = next
		}
		last := parts[len(parts)-1]
		if _, isMap := target[last].(map[string]any); isMap {
			continue
		}
		target[last] = vars[name]
	}
	return out
}

func sortedNames(vars map[string]string) []string {
	names := lo.Keys(vars)
	sort.Strings(names)
	return names
}
