package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
)

type database struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type appConfig struct {
	Database database      `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Started  time.Time     `mapstructure:"started"`
	Tags     []string      `mapstructure:"tags"`
	Debug    bool          `mapstructure:"debug"`
}

func TestDecodeCoercesScalars(t *testing.T) {
	got, err := Decode[appConfig](map[string]any{
		"database": map[string]any{"host": "db.local", "port": "5432"},
		"timeout":  "30s",
		"started":  "2024-01-02T03:04:05Z",
		"tags":     "a,b",
		"debug":    "true",
	})
	require.NoError(t, err)

	assert.Equal(t, database{Host: "db.local", Port: 5432}, got.Database)
	assert.Equal(t, 30*time.Second, got.Timeout)
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(got.Started))
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.True(t, got.Debug)
}

func TestDecodeError(t *testing.T) {
	_, err := Decode[appConfig](map[string]any{
		"database": map[string]any{"port": "not-a-port"},
	})
	assert.ErrorIs(t, err, errUtils.ErrDecode)
	assert.Contains(t, err.Error(), "port")
}

func TestInvalidPaths(t *testing.T) {
	shape := fieldpath.ShapeOf[appConfig]()

	invalid := InvalidPaths(shape, map[string]any{
		"database": map[string]any{"host": "h", "port": "abc"},
		"timeout":  "soon",
		"debug":    "maybe",
		"tags":     []any{"a"},
		"unknown":  "ignored",
	})
	assert.Equal(t, []string{"database.port", "debug", "timeout"}, invalid)

	assert.Equal(t, []string{"database"}, InvalidPaths(shape, map[string]any{"database": "oops"}))
	assert.Empty(t, InvalidPaths(shape, map[string]any{"database": map[string]any{"port": int64(1)}}))
	assert.Nil(t, InvalidPaths(nil, map[string]any{"a": 1}))
}

func TestInvalidPathsSkipsUntypedShapes(t *testing.T) {
	shape := fieldpath.ShapeFromTree("inferred", map[string]any{"port": int64(1)})
	assert.Empty(t, InvalidPaths(shape, map[string]any{"port": "abc"}))
}

func TestFilterInvalid(t *testing.T) {
	shape := fieldpath.ShapeOf[appConfig]()
	data := map[string]any{
		"database": map[string]any{"host": "h", "port": "abc"},
		"debug":    "maybe",
	}

	cleaned, skipped := FilterInvalid(shape, data, nil)
	assert.Equal(t, []string{"database.port", "debug"}, skipped)
	assert.Equal(t, map[string]any{"database": map[string]any{"host": "h"}}, cleaned)

	cleaned, skipped = FilterInvalid(shape, data, []string{"database"})
	assert.Equal(t, []string{"database.port"}, skipped)
	assert.Equal(t, map[string]any{
		"database": map[string]any{"host": "h"},
		"debug":    "maybe",
	}, cleaned)

	assert.Equal(t, "abc", data["database"].(map[string]any)["port"], "input must not be modified")
}

func TestFilterInvalidNothingToRemove(t *testing.T) {
	shape := fieldpath.ShapeOf[appConfig]()
	data := map[string]any{"debug": true}

	cleaned, skipped := FilterInvalid(shape, data, nil)
	assert.Nil(t, skipped)
	assert.Equal(t, data, cleaned)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &appConfig{Database: database{Host: "db.local"}}
	defaults := appConfig{
		Database: database{Host: "localhost", Port: 5432},
		Timeout:  5 * time.Second,
	}

	require.NoError(t, ApplyDefaults(cfg, defaults))
	assert.Equal(t, database{Host: "db.local", Port: 5432}, cfg.Database)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestDefaultedPaths(t *testing.T) {
	shape := fieldpath.ShapeOf[appConfig]()

	tests := []struct {
		name     string
		defaults any
		expected []string
	}{
		{
			name:     "struct",
			defaults: appConfig{Database: database{Port: 5432}, Timeout: time.Second},
			expected: []string{"database.port", "timeout"},
		},
		{
			name:     "pointer",
			defaults: &appConfig{Debug: true},
			expected: []string{"debug"},
		},
		{
			name:     "zero struct",
			defaults: appConfig{},
			expected: nil,
		},
		{
			name:     "raw tree",
			defaults: map[string]any{"database": map[string]any{"host": "h"}},
			expected: []string{"database.host"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultedPaths(shape, tt.defaults))
		})
	}
}
