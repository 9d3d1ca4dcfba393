package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/gps"
	"github.com/matzehuels/memviz/pkg/scene"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, scene.DefaultOptions(), c.SceneOptions())
	assert.Equal(t, gps.DefaultOptions(), c.LayoutOptions())
	assert.Equal(t, "svg", c.Format)
}

func TestParseOverrides(t *testing.T) {
	c, err := Parse(`
cell_size = 120
grid_cells = 12
show_internal_attributes = true
blacklist = ["__weakref__"]
fixed_frames = ["locals"]
format = "png"

[collection]
hmargin = 12
`)
	require.NoError(t, err)

	assert.Equal(t, 120.0, c.CellSize)
	assert.Equal(t, 12, c.GridCells)
	assert.True(t, c.ShowInternalAttributes)
	assert.Equal(t, []string{"__weakref__"}, c.Blacklist)
	assert.Equal(t, "png", c.Format)
	assert.Equal(t, 12.0, c.Collection.H)
	// Keys not in the file keep their defaults.
	assert.Equal(t, Default().Collection.V, c.Collection.V)
	assert.Equal(t, Default().Container, c.Container)

	so := c.SceneOptions()
	assert.Equal(t, 120.0, so.CellSize)
	assert.True(t, so.ShowInternal)
	assert.Equal(t, 12.0, so.CollectionHMargin)
	assert.Equal(t, []string{"locals"}, so.FixedFrames)
	assert.Equal(t, gps.Options{CellSize: 120, GridCells: 12}, c.LayoutOptions())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "cell_size = "},
		{"unknown key", "cel_size = 100"},
		{"unknown table key", "[collection]\nmargin = 1"},
		{"zero cell size", "cell_size = 0"},
		{"grid too small", "grid_cells = 1"},
		{"negative margin", "[container]\nvmargin = -1"},
		{"bad format", `format = "pdf"`},
		{"empty blacklist entry", `blacklist = [""]`},
		{"unknown frame", `fixed_frames = ["heap"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestValidateMessages(t *testing.T) {
	c := Default()
	c.Format = "bmp"
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, errors.UserMessage(err), "must be one of")

	c = Default()
	c.GridCells = 1000
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, errors.UserMessage(err), "GridCells")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memviz.toml")
	require.NoError(t, os.WriteFile(path, []byte("grid_cells = 20\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, c.GridCells)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
