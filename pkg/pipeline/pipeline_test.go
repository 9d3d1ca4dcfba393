package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/memviz/pkg/cache"
	"github.com/matzehuels/memviz/pkg/config"
	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/sink"
)

func listSnapshot(label string) node.Snapshot {
	return node.Snapshot{
		Label: label,
		Globals: []node.Binding{
			{Name: "xs", Value: node.Sequence("10", "list",
				node.Primitive("1", "int", "1"),
				node.Primitive("2", "int", "2"),
				node.Primitive("3", "int", "3"),
			)},
		},
	}
}

func newLRU(t *testing.T) *cache.LRU {
	t.Helper()
	c, err := cache.NewLRU(64)
	require.NoError(t, err)
	return c
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, config.Default(), opts.Config)
	assert.Equal(t, []sink.Format{sink.FormatSVG}, opts.Formats)
	assert.Positive(t, opts.Concurrency)
	assert.Nil(t, opts.Logger)

	// Idempotent.
	require.NoError(t, opts.ValidateAndSetDefaults())
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	bad := config.Default()
	bad.GridCells = 1

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"bad format", Options{Formats: []sink.Format{"bmp"}}, errors.ErrCodeInvalidFormat},
		{"bad config", Options{Config: bad}, errors.ErrCodeInvalidConfig},
		{"empty reorder id", Options{Reorders: map[string][]int{"": {0}}}, errors.ErrCodeInvalidInput},
		{"empty permutation", Options{Reorders: map[string][]int{"10": nil}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFormatsAreNormalized(t *testing.T) {
	opts := Options{Formats: []sink.Format{" JSON "}}
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, []sink.Format{sink.FormatJSON}, opts.Formats)
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), listSnapshot("line 1"), Options{
		Formats: []sink.Format{sink.FormatJSON, sink.FormatSVG},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Scene)
	assert.NoError(t, res.Scene.Positioned())
	assert.Equal(t, "line 1", res.Label)
	assert.Len(t, res.SnapshotHash, 64)
	assert.Equal(t, 4, res.Summary.Objects)
	assert.Equal(t, 4, res.Summary.References)
	assert.Equal(t, 1, res.Summary.Variables)
	assert.Equal(t, 1000.0, res.Summary.Width)
	assert.Empty(t, res.Summary.Issues)
	assert.False(t, res.CacheInfo.RenderHit)

	assert.Contains(t, string(res.Artifacts[sink.FormatJSON]), `"label": "line 1"`)
	assert.Contains(t, string(res.Artifacts[sink.FormatSVG]), "<svg")
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newLRU(t), nil, nil)
	defer r.Close()
	opts := Options{Formats: []sink.Format{sink.FormatSVG}}

	first, err := r.Execute(ctx, listSnapshot("a"), opts)
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.RenderHit)

	second, err := r.Execute(ctx, listSnapshot("a"), Options{Formats: []sink.Format{sink.FormatSVG}})
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.RenderHit)
	assert.Nil(t, second.Scene)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Artifacts, second.Artifacts)

	// A different option is a different key.
	cfg := config.Default()
	cfg.CellSize = 120
	third, err := r.Execute(ctx, listSnapshot("a"), Options{Config: cfg})
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.RenderHit)

	// A format that was never rendered is a miss.
	fourth, err := r.Execute(ctx, listSnapshot("a"), Options{Formats: []sink.Format{sink.FormatDOT}})
	require.NoError(t, err)
	assert.False(t, fourth.CacheInfo.RenderHit)

	// Refresh skips reads.
	fifth, err := r.Execute(ctx, listSnapshot("a"), Options{Refresh: true})
	require.NoError(t, err)
	assert.False(t, fifth.CacheInfo.RenderHit)
}

func TestExecuteReorder(t *testing.T) {
	s := node.Snapshot{Globals: []node.Binding{
		{Name: "s", Value: node.Set("10", "set",
			node.Primitive("1", "int", "1"),
			node.Primitive("2", "int", "2"),
			node.Primitive("3", "int", "3"),
		)},
	}}
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), s, Options{
		Formats:  []sink.Format{sink.FormatJSON},
		Reorders: map[string][]int{"10": {2, 0, 1}},
	})
	require.NoError(t, err)

	obj, ok := res.Scene.Lookup("10")
	require.True(t, ok)
	children := obj.Children()
	require.Len(t, children, 3)
	assert.Equal(t, "3", children[0].Head().ID())

	tests := []struct {
		name string
		id   string
		perm []int
		code errors.Code
	}{
		{"ordered sequence", "10", []int{2, 0, 1}, errors.ErrCodeReorderRejected},
		{"primitive", "1", []int{0}, errors.ErrCodeReorderRejected},
		{"unknown id", "99", []int{0}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), listSnapshot(""), Options{
				Reorders: map[string][]int{tt.id: tt.perm},
			})
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestExecuteReorderFrame(t *testing.T) {
	s := node.Snapshot{Globals: []node.Binding{
		{Name: "a", Value: node.Primitive("1", "int", "1")},
		{Name: "b", Value: node.Primitive("2", "int", "2")},
	}}
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), s, Options{
		Reorders: map[string][]int{"globals": {1, 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, "b", res.Scene.Variables()[0].Name())

	cfg := config.Default()
	cfg.FixedFrames = []string{"globals"}
	_, err = r.Execute(context.Background(), s, Options{
		Config:   cfg,
		Reorders: map[string][]int{"globals": {1, 0}},
	})
	assert.True(t, errors.Is(err, errors.ErrCodeReorderRejected), "got %v", err)
}

func TestExecuteLayoutOverflow(t *testing.T) {
	cfg := config.Default()
	cfg.GridCells = 2

	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), listSnapshot(""), Options{Config: cfg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLayoutOverflow))
	assert.True(t, strings.HasPrefix(err.Error(), "layout: "))
}

func TestExecuteMalformedIsReported(t *testing.T) {
	s := node.Snapshot{Globals: []node.Binding{
		{Name: "ok", Value: node.Primitive("1", "int", "1")},
		{Name: "bad", Value: &node.Node{ID: "2", Kind: "bogus"}},
	}}
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), s, Options{})
	require.NoError(t, err)
	require.Len(t, res.Summary.Issues, 1)
	assert.Contains(t, res.Summary.Issues[0], "MALFORMED_NODE")
}

func TestExecuteLogsThroughOptionsLogger(t *testing.T) {
	s := node.Snapshot{Label: "line 7", Globals: []node.Binding{
		{Name: "bad", Value: &node.Node{ID: "2", Kind: "bogus"}},
	}}

	var runnerOut, runOut bytes.Buffer
	r := NewRunner(nil, nil, log.New(&runnerOut))
	_, err := r.Execute(context.Background(), s, Options{Logger: log.New(&runOut)})
	require.NoError(t, err)
	assert.Contains(t, runOut.String(), "malformed node")
	assert.Contains(t, runOut.String(), "line 7")
	assert.Empty(t, runnerOut.String())

	// Without a per-run logger the runner's logger is used.
	runOut.Reset()
	_, err = r.Execute(context.Background(), s, Options{})
	require.NoError(t, err)
	assert.Contains(t, runnerOut.String(), "malformed node")
	assert.Empty(t, runOut.String())
}

func TestExecuteCyclicSnapshot(t *testing.T) {
	// In-process adapters share pointers, so a self-containing list is a
	// real cycle rather than a Ref stub.
	l := &node.Node{ID: "10", Kind: node.KindOrderedSequence, TypeName: "list"}
	l.Items = []*node.Node{l, node.Primitive("1", "int", "1")}
	s := node.Snapshot{Globals: []node.Binding{{Name: "l", Value: l}}}

	r := NewRunner(newLRU(t), nil, nil)
	defer r.Close()
	res, err := r.Execute(context.Background(), s, Options{Formats: []sink.Format{sink.FormatJSON}})
	require.NoError(t, err)
	assert.Len(t, res.SnapshotHash, 64)
	assert.Equal(t, 2, res.Summary.Objects)
	assert.Empty(t, res.Summary.Issues)

	// The same graph spelled with a Ref stub hashes the same and hits.
	stub := node.Snapshot{Globals: []node.Binding{{Name: "l", Value: node.Sequence("10", "list",
		node.Ref("10"), node.Primitive("1", "int", "1"))}}}
	again, err := r.Execute(context.Background(), stub, Options{Formats: []sink.Format{sink.FormatJSON}})
	require.NoError(t, err)
	assert.Equal(t, res.SnapshotHash, again.SnapshotHash)
	assert.True(t, again.CacheInfo.RenderHit)
}

func TestExecuteTrace(t *testing.T) {
	var tr node.Trace
	for _, l := range []string{"c0", "c1", "c2", "c3", "c4"} {
		tr.Checkpoints = append(tr.Checkpoints, listSnapshot(l))
	}

	r := NewRunner(newLRU(t), nil, nil)
	results, err := r.ExecuteTrace(context.Background(), tr, Options{
		Formats:     []sink.Format{sink.FormatJSON},
		Concurrency: 2,
	})
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, tr.Checkpoints[i].Label, res.Label)
		assert.NotEmpty(t, res.Artifacts[sink.FormatJSON])
	}
}

func TestExecuteTraceFailure(t *testing.T) {
	cfg := config.Default()
	cfg.GridCells = 2
	tr := node.Trace{Checkpoints: []node.Snapshot{
		{Label: "fits"},
		listSnapshot("too big"),
	}}

	r := NewRunner(nil, nil, nil)
	_, err := r.ExecuteTrace(context.Background(), tr, Options{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint 1")
	assert.True(t, errors.Is(err, errors.ErrCodeLayoutOverflow))
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(ctx, listSnapshot(""), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks

	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnBuildComplete(context.Context, string, int, int, time.Duration, error) {
	h.add("build")
}
func (h *recordingHooks) OnLayoutComplete(context.Context, time.Duration, error) { h.add("layout") }
func (h *recordingHooks) OnRenderComplete(_ context.Context, f string, _ int, _ time.Duration, _ error) {
	h.add("render:" + f)
}
func (h *recordingHooks) OnCacheHit(_ context.Context, k string)  { h.add("hit:" + k) }
func (h *recordingHooks) OnCacheMiss(_ context.Context, k string) { h.add("miss:" + k) }

func TestExecuteHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	defer observability.Reset()

	ctx := context.Background()
	r := NewRunner(newLRU(t), nil, nil)
	opts := func() Options { return Options{Formats: []sink.Format{sink.FormatDOT}} }

	_, err := r.Execute(ctx, listSnapshot(""), opts())
	require.NoError(t, err)
	_, err = r.Execute(ctx, listSnapshot(""), opts())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"miss:scene", "build", "layout", "render:dot",
		"hit:scene", "hit:artifact",
	}, h.events)
}
