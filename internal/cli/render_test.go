package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/sink"
)

const snapshotJSON = `{
  "label": "line 4",
  "globals": [
    {"name": "xs", "value": {"id": "10", "kind": "ordered", "type": "list", "items": [
      {"id": "1", "kind": "primitive", "type": "int", "text": "1"},
      {"id": "2", "kind": "primitive", "type": "int", "text": "2"}
    ]}},
    {"name": "ys", "value": {"id": "10"}}
  ]
}`

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "snap.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o644))
	return path
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		def     string
		want    []sink.Format
		wantErr bool
	}{
		{"empty defaults to svg", "", "", []sink.Format{sink.FormatSVG}, false},
		{"config default", "", "png", []sink.Format{sink.FormatPNG}, false},
		{"flag wins", "json", "png", []sink.Format{sink.FormatJSON}, false},
		{"multiple formats", "svg,json,dot", "", []sink.Format{sink.FormatSVG, sink.FormatJSON, sink.FormatDOT}, false},
		{"invalid", "svg,pdf", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFormats(tt.input, tt.def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFormats(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReorders(t *testing.T) {
	got, err := parseReorders([]string{"10=2,0,1", "20= 1, 0"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"10": {2, 0, 1}, "20": {1, 0}}, got)

	got, err = parseReorders(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"10", "=1,0", "10=", "10=a,b"} {
		_, err := parseReorders([]string{bad})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), bad)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "traces/run.json", "traces/run"},
		{"out.svg", "run.json", "out"},
		{"out.png", "run.json", "out"},
		{"out", "run.json", "out"},
		{"out.txt", "run.json", "out.txt"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		base    string
		format  sink.Format
		formats int
		want    string
	}{
		{"explicit single", "diagram.svg", "diagram", sink.FormatSVG, 1, "diagram.svg"},
		{"stdout", "-", "-", sink.FormatJSON, 1, "-"},
		{"derived", "", "run", sink.FormatPNG, 1, "run.png"},
		{"multiple", "out.svg", "out", sink.FormatJSON, 2, "out.json"},
		{"graphviz suffix", "", "run", sink.FormatGraphviz, 2, "run.graphviz.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.output, tt.base, tt.format, tt.formats); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectCheckpoint(t *testing.T) {
	tr := node.Trace{Checkpoints: []node.Snapshot{{Label: "a"}, {Label: "b"}, {Label: "c"}}}

	tests := []struct {
		in        int
		wantLabel string
		wantIdx   int
		wantErr   bool
	}{
		{0, "a", 0, false},
		{2, "c", 2, false},
		{-1, "c", 2, false},
		{-3, "a", 0, false},
		{3, "", 0, true},
		{-4, "", 0, true},
	}
	for _, tt := range tests {
		s, idx, err := selectCheckpoint(tr, tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("selectCheckpoint(%d) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && (s.Label != tt.wantLabel || idx != tt.wantIdx) {
			t.Errorf("selectCheckpoint(%d) = %q/%d, want %q/%d", tt.in, s.Label, idx, tt.wantLabel, tt.wantIdx)
		}
	}

	_, _, err := selectCheckpoint(node.Trace{}, -1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestSettingsFlagsPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "memviz.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("cell_size = 120\ngrid_cells = 8\nformat = \"png\"\n"), 0o644))

	var f settingsFlags
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	f.register(cmd, "formats")
	require.NoError(t, cmd.Flags().Parse([]string{"--config", cfgPath, "--grid-cells", "12", "--show-internal"}))

	opts, err := f.options(cmd)
	require.NoError(t, err)
	assert.Equal(t, 120.0, opts.Config.CellSize, "file overrides default")
	assert.Equal(t, 12, opts.Config.GridCells, "flag overrides file")
	assert.True(t, opts.Config.ShowInternalAttributes)
	assert.Equal(t, []sink.Format{sink.FormatPNG}, opts.Formats, "format comes from file")
}

func TestSettingsFlagsInvalid(t *testing.T) {
	var f settingsFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--grid-cells", "1"}))

	_, err := f.options(cmd)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func newTestCLI() (*CLI, *bytes.Buffer) {
	var logs bytes.Buffer
	return New(&logs, log.DebugLevel), &logs
}

func TestRootCommand(t *testing.T) {
	c, _ := newTestCLI()
	root := c.RootCommand()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"render", "layout", "trace", "serve", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeSnapshot(t, dir)
	out := filepath.Join(dir, "diagram")

	c, logs := newTestCLI()
	root := c.RootCommand()
	root.SetArgs([]string{"render", input, "-o", out, "-f", "json,svg"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	data, err := os.ReadFile(out + ".json")
	require.NoError(t, err)
	var doc sink.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "line 4", doc.Label)
	assert.Len(t, doc.Objects, 3)
	assert.Len(t, doc.Variables, 4)

	svg, err := os.ReadFile(out + ".svg")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	assert.Contains(t, logs.String(), "Rendered checkpoint 0")
}

func TestRenderCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input := writeSnapshot(t, dir)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad format", []string{"render", input, "-f", "pdf"}, errors.ErrCodeInvalidFormat},
		{"bad extension", []string{"render", filepath.Join(dir, "snap.txt")}, errors.ErrCodeInvalidFormat},
		{"overflow", []string{"render", input, "--grid-cells", "2", "-o", filepath.Join(dir, "x.svg")}, errors.ErrCodeLayoutOverflow},
		{"bad checkpoint", []string{"render", input, "-c", "5"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCLI()
			root := c.RootCommand()
			root.SetArgs(tt.args)
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			err := root.ExecuteContext(context.Background())
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestTraceCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "run.yaml")
	trace := `checkpoints:
  - label: start
    globals:
      - name: n
        value: {id: "1", kind: primitive, type: int, text: "0"}
  - label: loop
    globals:
      - name: n
        value: {id: "1", kind: primitive, type: int, text: "1"}
`
	require.NoError(t, os.WriteFile(input, []byte(trace), 0o644))
	outDir := filepath.Join(dir, "frames")

	c, _ := newTestCLI()
	root := c.RootCommand()
	root.SetArgs([]string{"trace", input, "-o", outDir, "-f", "svg", "-j", "2"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	for _, name := range []string{"run-0.svg", "run-1.svg"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestCompletionCommand(t *testing.T) {
	c, _ := newTestCLI()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "memviz")
}
