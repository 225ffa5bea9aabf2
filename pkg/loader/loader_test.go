package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func load(t *testing.T, spec Spec) any {
	t.Helper()
	l, err := New(spec)
	require.NoError(t, err)
	data, err := l.Load(context.Background(), "")
	require.NoError(t, err)
	return data
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{path: "", want: KindEnv},
		{path: "config.yaml", want: KindYAML},
		{path: "/etc/app/config.YML", want: KindYAML},
		{path: "config.json", want: KindJSON},
		{path: "config.json5", want: KindJSON5},
		{path: "pyproject.toml", want: KindTOML},
		{path: "setup.cfg", want: KindINI},
		{path: "app.ini", want: KindINI},
		{path: ".env", want: KindEnvFile},
		{path: "prod.env", want: KindEnvFile},
		{path: ".env.local", want: KindEnvFile},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := KindFromPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindFromPathUnknownExtension(t *testing.T) {
	_, err := KindFromPath("config.xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUtils.ErrUnknownLoaderKind))
	assert.Contains(t, err.Error(), "config.xml")

	hints := errors.GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], ".yaml")
	assert.Contains(t, errors.GetAllDetails(err), `No loader handles the ".xml" extension.`)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" YAML1.2 ")
	require.NoError(t, err)
	assert.Equal(t, KindYAML12, kind)

	_, err = ParseKind("xml")
	assert.ErrorIs(t, err, errUtils.ErrUnknownLoaderKind)
}

func TestResolveKindOverride(t *testing.T) {
	kind, err := ResolveKind(Spec{File: "settings.conf", Kind: KindTOML})
	require.NoError(t, err)
	assert.Equal(t, KindTOML, kind)
}

func TestLoadFileFormats(t *testing.T) {
	want := map[string]any{
		"database": map[string]any{"host": "localhost", "port": int64(5432)},
		"ratio":    1.5,
		"debug":    true,
		"tags":     []any{"a", "b"},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "yaml",
			file:    "config.yaml",
			content: "database:\n  host: localhost\n  port: 5432\nratio: 1.5\ndebug: true\ntags: [a, b]\n",
		},
		{
			name:    "json",
			file:    "config.json",
			content: `{"database": {"host": "localhost", "port": 5432}, "ratio": 1.5, "debug": true, "tags": ["a", "b"]}`,
		},
		{
			name:    "json5",
			file:    "config.json5",
			content: "{database: {host: 'localhost', port: 5432}, ratio: 1.5, debug: true, tags: ['a', 'b',],}",
		},
		{
			name:    "toml",
			file:    "config.toml",
			content: "ratio = 1.5\ndebug = true\ntags = [\"a\", \"b\"]\n\n[database]\nhost = \"localhost\"\nport = 5432\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			got := load(t, Spec{File: path, Environ: environ()})
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadJSON5(t *testing.T) {
	path := writeFile(t, "config.json5", `{
  // connection settings
  host: "localhost",
  port: 0x1F90,
  /* trailing commas are allowed */
  tags: ["a", "b",],
}
`)
	got := load(t, Spec{File: path, Environ: environ()})
	assert.Equal(t, map[string]any{
		"host": "localhost",
		"port": int64(8080),
		"tags": []any{"a", "b"},
	}, got)
}

func TestLoadNameStyles(t *testing.T) {
	want := map[string]any{
		"user_name":   "alice",
		"max_retries": int64(3),
		"database":    map[string]any{"host_name": "db"},
	}

	tests := []struct {
		style   schema.NameStyle
		content string
	}{
		{schema.NameStyleLowerSnake, `{"user_name": "alice", "max_retries": 3, "database": {"host_name": "db"}}`},
		{schema.NameStyleUpperSnake, `{"USER_NAME": "alice", "MAX_RETRIES": 3, "DATABASE": {"HOST_NAME": "db"}}`},
		{schema.NameStyleLowerCamel, `{"userName": "alice", "maxRetries": 3, "database": {"hostName": "db"}}`},
		{schema.NameStyleUpperCamel, `{"UserName": "alice", "MaxRetries": 3, "Database": {"HostName": "db"}}`},
		{schema.NameStyleLowerKebab, `{"user-name": "alice", "max-retries": 3, "database": {"host-name": "db"}}`},
		{schema.NameStyleUpperKebab, `{"USER-NAME": "alice", "MAX-RETRIES": 3, "DATABASE": {"HOST-NAME": "db"}}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			path := writeFile(t, "config.json", tt.content)
			got := load(t, Spec{File: path, NameStyle: tt.style, Environ: environ()})
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadNameStyleKeepsCanonicalKey(t *testing.T) {
	path := writeFile(t, "config.json", `{"user_name": "kept", "userName": "converted"}`)
	got := load(t, Spec{File: path, NameStyle: schema.NameStyleLowerCamel, Environ: environ()})
	assert.Equal(t, map[string]any{"user_name": "kept", "userName": "converted"}, got)
}

func TestLoadFieldMapping(t *testing.T) {
	mapping := map[string][]string{
		"name":          {"fullName", "userName"},
		"database.host": {"server"},
	}

	t.Run("aliases are renamed", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "userName: bob
database:
  server: db
")
		got := load(t, Spec{File: path, FieldMapping: mapping, Environ: environ()})
		assert.Equal(t, map[string]any{
			"name":     "bob",
			"database": map[string]any{"host": "db"},
		}, got)
	})

	t.Run("first declared alias wins", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "fullName: alice
userName: bob
")
		got := load(t, Spec{File: path, FieldMapping: mapping, Environ: environ()})
		assert.Equal(t, map[string]any{"name": "alice", "userName": "bob"}, got)
	})

	t.Run("field present ignores alias", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "name: carol
fullName: alice
")
		got := load(t, Spec{File: path, FieldMapping: mapping, Environ: environ()})
		assert.Equal(t, map[string]any{"name": "carol", "fullName": "alice"}, got)
	})

	t.Run("aliases do not apply inside lists", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "items:
  - fullName: alice
")
		got := load(t, Spec{File: path, FieldMapping: mapping, Environ: environ()})
		assert.Equal(t, map[string]any{"items": []any{map[string]any{"fullName": "alice"}}}, got)
	})

	t.Run("with name style", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"login": "dave", "maxRetries": 2}`)
		got := load(t, Spec{
			File:         path,
			NameStyle:    schema.NameStyleLowerCamel,
			FieldMapping: map[string][]string{"user_name": {"login"}},
			Environ:      environ(),
		})
		assert.Equal(t, map[string]any{"user_name": "dave", "max_retries": int64(2)}, got)
	})
}

func TestNewRejectsInvalidNameOptions(t *testing.T) {
	_, err := New(Spec{File: "config.yaml", NameStyle: "title_case"})
	assert.ErrorIs(t, err, errUtils.ErrInvalidOption)

	_, err = New(Spec{File: "config.yaml", FieldMapping: map[string][]string{"": {"x"}}})
	assert.ErrorIs(t, err, errUtils.ErrInvalidOption)

	_, err = New(Spec{File: "config.yaml", FieldMapping: map[string][]string{"name": {""}}})
	assert.ErrorIs(t, err, errUtils.ErrInvalidOption)
}

func TestLoadYAMLVersions(t *testing.T) {
	path := writeFile(t, "flags.txt", "enabled: yes\n")

	v11 := load(t, Spec{File: path, Kind: KindYAML11, Environ: environ()})
	assert.Equal(t, map[string]any{"enabled": true}, v11)

	v12 := load(t, Spec{File: path, Kind: KindYAML12, Environ: environ()})
	assert.Equal(t, map[string]any{"enabled": "yes"}, v12)
}

func TestLoadINI(t *testing.T) {
	path := writeFile(t, "app.ini", `top = 1

[database]
host = localhost
port = 5432

[database.replica]
host = replica
`)

	got := load(t, Spec{File: path, Environ: environ()})
	assert.Equal(t, map[string]any{
		"DEFAULT": map[string]any{"top": "1"},
		"database": map[string]any{
			"host":    "localhost",
			"port":    "5432",
			"replica": map[string]any{"host": "replica"},
		},
	}, got)
}

func TestLoadINIWithoutDefaults(t *testing.T) {
	path := writeFile(t, "app.cfg", "[server]\nport = 80\n")

	got := load(t, Spec{File: path, Environ: environ()})
	assert.Equal(t, map[string]any{"server": map[string]any{"port": "80"}}, got)
}

func TestLoadPrefix(t *testing.T) {
	path := writeFile(t, "pyproject.toml", "[tool.app]\nname = \"demo\"\n\n[tool.other]\nname = \"x\"\n")

	got := load(t, Spec{File: path, Prefix: "tool.app", Environ: environ()})
	assert.Equal(t, map[string]any{"name": "demo"}, got)

	got = load(t, Spec{File: path, Prefix: "tool.missing", Environ: environ()})
	assert.Equal(t, map[string]any{}, got)

	got = load(t, Spec{File: path, Prefix: "tool.app.name", Environ: environ()})
	assert.Equal(t, map[string]any{}, got)
}

func TestLoadEmptyDocument(t *testing.T) {
	path := writeFile(t, "empty.yaml", "")

	got := load(t, Spec{File: path, Environ: environ()})
	assert.Equal(t, map[string]any{}, got)
}

func TestLoadErrors(t *testing.T) {
	t.Run("non-mapping root", func(t *testing.T) {
		path := writeFile(t, "list.yaml", "- a\n- b\n")
		l, err := New(Spec{File: path})
		require.NoError(t, err)

		_, err = l.Load(context.Background(), "")
		assert.ErrorIs(t, err, errUtils.ErrNonMappingDocument)
		assert.Contains(t, err.Error(), "root=sequence")
	})

	t.Run("parse error", func(t *testing.T) {
		path := writeFile(t, "broken.json", "{")
		l, err := New(Spec{File: path})
		require.NoError(t, err)

		_, err = l.Load(context.Background(), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errUtils.ErrParseSource))
		assert.Contains(t, err.Error(), path)
	})

	t.Run("missing file", func(t *testing.T) {
		l, err := New(Spec{File: filepath.Join(t.TempDir(), "absent.yaml")})
		require.NoError(t, err)

		_, err = l.Load(context.Background(), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errUtils.ErrLoadSource))
	})

	t.Run("canceled context", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "a: 1\n")
		l, err := New(Spec{File: path})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = l.Load(ctx, "")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid expand mode", func(t *testing.T) {
		_, err := New(Spec{File: "config.yaml", ExpandEnv: "sometimes"})
		assert.ErrorIs(t, err, errUtils.ErrInvalidOption)
	})
}

func TestLoadEnv(t *testing.T) {
	got := load(t, Spec{
		Prefix: "APP_",
		Environ: environ(
			"APP_DB__HOST=localhost",
			"APP_DB__PORT=5432",
			"APP_NAME=demo",
			"OTHER=ignored",
			"app_lower=ignored",
		),
	})

	assert.Equal(t, map[string]any{
		"db":   map[string]any{"host": "localhost", "port": "5432"},
		"name": "demo",
	}, got)
}

func TestLoadEnvFieldMapping(t *testing.T) {
	got := load(t, Spec{
		Prefix:       "APP_",
		FieldMapping: map[string][]string{"db.host": {"server"}},
		Environ:      environ("APP_DB__SERVER=localhost"),
	})
	assert.Equal(t, map[string]any{"db": map[string]any{"host": "localhost"}}, got)
}

func TestLoadEnvCustomSplit(t *testing.T) {
	got := load(t, Spec{
		Prefix:       "APP_",
		SplitSymbols: "_",
		Environ:      environ("APP_DB_HOST=localhost"),
	})
	assert.Equal(t, map[string]any{"db": map[string]any{"host": "localhost"}}, got)
}

func TestLoadEnvNestedWinsOverScalar(t *testing.T) {
	got := load(t, Spec{
		Prefix:  "APP_",
		Environ: environ("APP_DB=flat", "APP_DB__HOST=nested"),
	})
	assert.Equal(t, map[string]any{"db": map[string]any{"host": "nested"}}, got)
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "# comment\nDB__HOST=localhost\nDB__PORT=5432\nexport NAME=\"demo app\"\n")

	got := load(t, Spec{File: path, Environ: environ()})
	assert.Equal(t, map[string]any{
		"db":   map[string]any{"host": "localhost", "port": "5432"},
		"name": "demo app",
	}, got)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	path := writeFile(t, "config.yaml", "url: 'http://${HOST}:$PORT/%APP%'\nkeep: $UNSET\n")
	vars := environ("HOST=example.com", "PORT=8080", "APP=demo")

	got := load(t, Spec{File: path, Environ: vars})
	assert.Equal(t, map[string]any{"url": "http://example.com:8080/demo", "keep": "$UNSET"}, got)

	got = load(t, Spec{File: path, Environ: vars, ExpandEnv: schema.ExpandEnvDisabled})
	assert.Equal(t, map[string]any{"url": "http://${HOST}:$PORT/%APP%", "keep": "$UNSET"}, got)

	l, err := New(Spec{File: path, Environ: vars, ExpandEnv: schema.ExpandEnvStrict})
	require.NoError(t, err)
	_, err = l.Load(context.Background(), "")
	assert.ErrorIs(t, err, errUtils.ErrMissingEnvVar)

	var missing *MissingEnvVarsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"UNSET"}, missing.Names)
}

func TestMockLoader(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewMockLoader(ctrl)
	m.EXPECT().Kind().Return(KindJSON)
	m.EXPECT().Load(gomock.Any(), "a.json").Return(map[string]any{"a": int64(1)}, nil)

	var l Loader = m
	assert.Equal(t, KindJSON, l.Kind())
	data, err := l.Load(context.Background(), "a.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, data)
}
