package merge

import (
	"bytes"
	"testing"

	charm "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	log "github.com/cloudposse/confmerge/pkg/logger"
)

func TestProvenanceRecordAndLatest(t *testing.T) {
	p := NewProvenance()
	a := SourceRef{Index: 0, Kind: "yaml", File: "a.yaml"}
	b := SourceRef{Index: 1, Kind: "env"}

	p.Record("host", Origin{Source: a, Value: "x"})
	p.Record("host", Origin{Source: b, Value: "y"})

	chain := p.Get("host")
	require.Len(t, chain, 2)
	assert.Equal(t, a, chain[0].Source)

	latest, ok := p.Latest("host")
	require.True(t, ok)
	assert.Equal(t, b, latest.Source)
	assert.Equal(t, "y", latest.Value)

	_, ok = p.Latest("port")
	assert.False(t, ok)
}

func TestProvenanceAssignDropsStalePaths(t *testing.T) {
	p := NewProvenance()
	ref := SourceRef{Index: 0, Kind: "json"}

	p.Assign("database.host", Origin{Source: ref})
	p.Assign("database.port", Origin{Source: ref})
	p.Assign("databases", Origin{Source: ref})
	p.Assign("database", Origin{Source: ref, Value: "sqlite://"})

	assert.Nil(t, p.Get("database.host"))
	assert.Nil(t, p.Get("database.port"))
	assert.Len(t, p.Get("databases"), 1)
	assert.Len(t, p.Get("database"), 1)

	p.Assign("database.host", Origin{Source: ref})
	assert.Nil(t, p.Get("database"))
	assert.Len(t, p.Get("database.host"), 1)
	assert.Len(t, p.Get("databases"), 1)
}

func TestProvenanceNilSafe(t *testing.T) {
	var p *Provenance
	assert.NotPanics(t, func() {
		p.Record("a", Origin{})
		p.Assign("a", Origin{})
	})
	assert.Nil(t, p.Get("a"))
	_, ok := p.Latest("a")
	assert.False(t, ok)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewLogger(charm.NewWithOptions(&buf, charm.Options{Level: charm.DebugLevel}))

	engine := NewEngine(WithSink(NewLogSink(l)))
	srcs := sources(map[string]any{"host": "a"}, nil)
	srcs[1].Err = errUnreadable

	_, err := engine.Run(srcs, Config{SkipBrokenSources: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Source loaded")
	assert.Contains(t, out, "Merge step applied")
	assert.Contains(t, out, "Source skipped (broken)")
	assert.NotContains(t, out, "Field origin assigned")
}
