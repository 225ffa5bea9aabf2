package tree

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/cloudposse/confmerge/errors"
)

func TestNormalize(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{name: "nil", input: nil, expected: nil},
		{name: "int", input: 5, expected: int64(5)},
		{name: "uint8", input: uint8(7), expected: int64(7)},
		{name: "uint64 overflow", input: uint64(math.MaxUint64), expected: float64(math.MaxUint64)},
		{name: "float32", input: float32(1.5), expected: float64(1.5)},
		{name: "json number int", input: json.Number("42"), expected: int64(42)},
		{name: "json number float", input: json.Number("4.2"), expected: 4.2},
		{name: "time", input: ts, expected: "2024-05-01T12:00:00Z"},
		{
			name:     "map any any",
			input:    map[any]any{"port": 8080, 1: "one"},
			expected: map[string]any{"port": int64(8080), "1": "one"},
		},
		{
			name:     "typed slice",
			input:    []string{"a", "b"},
			expected: []any{"a", "b"},
		},
		{
			name:     "string map",
			input:    map[string]string{"host": "localhost"},
			expected: map[string]any{"host": "localhost"},
		},
		{
			name:     "nested",
			input:    map[string]any{"db": map[string]any{"ports": []int{1, 2}}},
			expected: map[string]any{"db": map[string]any{"ports": []any{int64(1), int64(2)}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestSplitAndJoinPath(t *testing.T) {
	assert.Equal(t, []string{"database", "host"}, SplitPath("database.host"))
	assert.Equal(t, []string{"a", "b"}, SplitPath("a..b"))
	assert.Empty(t, SplitPath(""))
	assert.Equal(t, "database.host", JoinPath("database", "host"))
	assert.Equal(t, "database", AppendKey("", "database"))
	assert.Equal(t, "database", ParentPath("database.host"))
	assert.Equal(t, "", ParentPath("database"))
	assert.True(t, HasPathPrefix("database.host", "database"))
	assert.False(t, HasPathPrefix("databases.host", "database"))
}

func TestGetAndSet(t *testing.T) {
	data := map[string]any{}
	require.NoError(t, Set(data, []string{"database", "host"}, "localhost"))
	require.NoError(t, Set(data, []string{"database", "port"}, int64(5432)))

	value, ok := GetPath(data, "database.host")
	require.True(t, ok)
	assert.Equal(t, "localhost", value)

	_, ok = GetPath(data, "database.user")
	assert.False(t, ok)

	err := Set(data, []string{"database", "host", "name"}, "x")
	assert.ErrorIs(t, err, errUtils.ErrCannotNavigatePath)

	err = Set(data, nil, "x")
	assert.ErrorIs(t, err, errUtils.ErrEmptyPath)
}

func TestCloneIsDeep(t *testing.T) {
	original := map[string]any{
		"tags": []any{"a"},
		"db":   map[string]any{"host": "x"},
	}
	clone := Clone(original).(map[string]any)
	clone["db"].(map[string]any)["host"] = "y"
	clone["tags"].([]any)[0] = "b"

	assert.Equal(t, "x", original["db"].(map[string]any)["host"])
	assert.Equal(t, "a", original["tags"].([]any)[0])
	assert.True(t, Equal(map[string]any{"db": map[string]any{"host": "y"}, "tags": []any{"b"}}, clone))
}

func TestWithout(t *testing.T) {
	data := map[string]any{
		"db":      map[string]any{"host": "x", "port": "bad"},
		"timeout": int64(3),
	}

	out := Without(data, "db.port", "missing.path")
	assert.Equal(t, map[string]any{
		"db":      map[string]any{"host": "x"},
		"timeout": int64(3),
	}, out)
	assert.Contains(t, data["db"], "port")
}

func TestLeaves(t *testing.T) {
	data := map[string]any{
		"timeout": int64(3),
		"db": map[string]any{
			"port": int64(5432),
			"host": "x",
		},
		"tags":  []any{"a"},
		"empty": map[string]any{},
	}

	assert.Equal(t, []string{"db.host", "db.port", "tags", "timeout"}, LeafPaths(data))
	assert.Equal(t, Leaf{Path: "db.host", Value: "x"}, Leaves(data)[0])
	assert.Empty(t, Leaves("scalar"))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "mapping", Kind(map[string]any{}))
	assert.Equal(t, "sequence", Kind([]any{}))
	assert.Equal(t, "integer", Kind(int64(1)))
	assert.Equal(t, "float", Kind(1.5))
	assert.Equal(t, "string", Kind("a"))
	assert.Equal(t, "bool", Kind(true))
	assert.Equal(t, "null", Kind(nil))
}
