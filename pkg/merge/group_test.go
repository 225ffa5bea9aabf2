package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
)

func hostPortGroup() []ResolvedGroup {
	return []ResolvedGroup{{Paths: []string{"host", "port"}}}
}

func TestCheckGroupsPartialOverride(t *testing.T) {
	origins := NewProvenance()
	a := &Source{Index: 0, Kind: "json", File: "a.json"}
	origins.Assign("host", Origin{Source: a.Ref(), Value: "x"})
	origins.Assign("port", Origin{Source: a.Ref(), Value: int64(1)})

	before := map[string]any{"host": "x", "port": int64(1)}
	b := &Source{Index: 1, Kind: "json", File: "b.json", Data: map[string]any{"host": "y"}}

	violations := CheckGroups(before, b, hostPortGroup(), origins)
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, []string{"host", "port"}, v.Group)
	assert.Equal(t, 1, v.Source.Index)
	require.Len(t, v.Changed, 1)
	assert.Equal(t, "host", v.Changed[0].Path)
	assert.Equal(t, b.Ref(), *v.Changed[0].Source)
	require.Len(t, v.Unchanged, 1)
	assert.Equal(t, "port", v.Unchanged[0].Path)
	assert.Equal(t, a.Ref(), *v.Unchanged[0].Source)
}

func TestCheckGroupsNoViolation(t *testing.T) {
	before := map[string]any{"host": "x", "port": int64(1)}

	tests := []struct {
		name string
		data map[string]any
	}{
		{name: "all changed", data: map[string]any{"host": "y", "port": int64(2)}},
		{name: "none supplied", data: map[string]any{"timeout": int64(5)}},
		{name: "all equal", data: map[string]any{"host": "x", "port": int64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &Source{Index: 1, Kind: "json", Data: tt.data}
			assert.Empty(t, CheckGroups(before, src, hostPortGroup(), NewProvenance()))
		})
	}
}

func TestCheckGroupsPresentButEqualCountsAsUnchanged(t *testing.T) {
	before := map[string]any{"host": "x", "port": int64(1)}
	src := &Source{Index: 1, Kind: "json", Data: map[string]any{"host": "y", "port": int64(1)}}

	violations := CheckGroups(before, src, hostPortGroup(), NewProvenance())
	require.Len(t, violations, 1)
	require.Len(t, violations[0].Unchanged, 1)
	// No recorded origin: an equal value is attributed to the current source.
	assert.Equal(t, src.Ref(), *violations[0].Unchanged[0].Source)
}

func TestCheckGroupsAbsentWithoutOriginIsNone(t *testing.T) {
	src := &Source{Index: 1, Kind: "env", Data: map[string]any{"host": "y"}}

	violations := CheckGroups(map[string]any{}, src, hostPortGroup(), NewProvenance())
	require.Len(t, violations, 1)
	assert.Nil(t, violations[0].Unchanged[0].Source)
	assert.Equal(t, "none", violations[0].Unchanged[0].SourceString())
}

func TestResolveGroupsExpansionOrder(t *testing.T) {
	shape := testShape()
	groups, err := ResolveGroups(shape, []FieldGroup{
		Group(fieldpath.Deferred("Config", "database"), fieldpath.Deferred("Config", "timeout")),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"database.host", "database.port", "timeout"}, groups[0].Paths)

	_, err = ResolveGroups(shape, []FieldGroup{Group(fieldpath.Deferred("Config", "nope"))})
	assert.ErrorIs(t, err, errUtils.ErrUnknownField)
}
