package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/schema"
)

func TestExpandString(t *testing.T) {
	lookup := LookupFromEnviron([]string{"USER=alice", "HOME=/home/alice", "EMPTY="})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "no refs", want: "no refs"},
		{name: "dollar", input: "$USER", want: "alice"},
		{name: "braced", input: "${HOME}/bin", want: "/home/alice/bin"},
		{name: "percent", input: "%USER%-x", want: "alice-x"},
		{name: "escaped dollar", input: "$$USER", want: "$USER"},
		{name: "escaped percent", input: "100%%", want: "100%"},
		{name: "unknown kept", input: "$NOPE and ${NOPE} and %NOPE%", want: "$NOPE and ${NOPE} and %NOPE%"},
		{name: "default used", input: "${NOPE:-fallback}", want: "fallback"},
		{name: "default ignored", input: "${USER:-fallback}", want: "alice"},
		{name: "nested default", input: "${NOPE:-$USER}", want: "alice"},
		{name: "empty value", input: "[$EMPTY]", want: "[]"},
		{name: "lone dollar", input: "cost: 5$", want: "cost: 5$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandString(tt.input, schema.ExpandEnvDefault, lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandStringStrict(t *testing.T) {
	lookup := LookupFromEnviron([]string{"USER=alice"})

	got, err := ExpandString("${NOPE:-x}-$USER", schema.ExpandEnvStrict, lookup)
	require.NoError(t, err)
	assert.Equal(t, "x-alice", got)

	_, err = ExpandString("$B $A $B", schema.ExpandEnvStrict, lookup)
	assert.ErrorIs(t, err, errUtils.ErrMissingEnvVar)
	assert.EqualError(t, err, "missing environment variable: A, B")
}

func TestExpandTree(t *testing.T) {
	lookup := LookupFromEnviron([]string{"PORT=8080"})
	input := map[string]any{
		"server": map[string]any{"port": "$PORT", "hosts": []any{"a:$PORT", int64(1)}},
		"debug":  true,
	}

	got, err := ExpandTree(input, schema.ExpandEnvDefault, lookup)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"server": map[string]any{"port": "8080", "hosts": []any{"a:8080", int64(1)}},
		"debug":  true,
	}, got)
	assert.Equal(t, "$PORT", input["server"].(map[string]any)["port"], "input must not be modified")

	_, err = ExpandTree(map[string]any{"a": "$X", "b": []any{"%Y%"}}, schema.ExpandEnvStrict, lookup)
	var missing *MissingEnvVarsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"X", "Y"}, missing.Names)
}
