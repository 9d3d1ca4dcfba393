// Package pipeline runs the snapshot → scene → layout → output pipeline.
//
// The CLI and the HTTP server both go through a [Runner], so they apply the
// same defaults, memoization, hooks, and logging.
//
// # Stages
//
//  1. Build: resolve the snapshot into an unpositioned scene ([scene.Build]),
//     then apply any requested reorders.
//  2. Layout: place objects and variables on the grid ([gps.Layout]).
//  3. Render: encode the positioned scene in each requested format
//     ([sink.Render]).
//
// # Usage
//
//	runner := pipeline.NewRunner(lru, nil, logger)
//	result, err := runner.Execute(ctx, snapshot, pipeline.Options{
//	    Formats: []sink.Format{sink.FormatSVG, sink.FormatJSON},
//	})
//	svg := result.Artifacts[sink.FormatSVG]
//
// A trace is processed checkpoint by checkpoint in parallel:
//
//	results, err := runner.ExecuteTrace(ctx, trace, opts)
package pipeline

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/memviz/pkg/config"
	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/scene"
	"github.com/matzehuels/memviz/pkg/sink"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Config holds scene and layout settings. The zero value means
	// config.Default().
	Config config.Config `json:"config"`

	// Formats lists the outputs to render. Defaults to SVG.
	Formats []sink.Format `json:"formats,omitempty"`

	// Reorders permutes slots of collections by object identity before
	// layout, e.g. {"10": {2, 0, 1}}.
	Reorders map[string][]int `json:"reorders,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Concurrency bounds ExecuteTrace. Defaults to GOMAXPROCS.
	Concurrency int `json:"-"`

	// Logger receives stage diagnostics such as malformed nodes. Runner
	// methods default it to the runner's logger.
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults applies defaults and validates the options. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config.CellSize == 0 && o.Config.GridCells == 0 {
		o.Config = config.Default()
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []sink.Format{sink.FormatSVG}
	}
	for i, f := range o.Formats {
		parsed, err := sink.ParseFormat(string(f))
		if err != nil {
			return err
		}
		o.Formats[i] = parsed
	}
	for id, perm := range o.Reorders {
		if id == "" {
			return errors.New(errors.ErrCodeInvalidInput, "reorder: empty object id")
		}
		if len(perm) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "reorder %s: empty permutation", id)
		}
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	o.validated = true
	return nil
}

// sceneKeyOpts is the part of Options that determines the positioned scene.
type sceneKeyOpts struct {
	Config   config.Config    `json:"config"`
	Reorders map[string][]int `json:"reorders,omitempty"`
}

func (o *Options) sceneKeyOpts() sceneKeyOpts {
	return sceneKeyOpts{Config: o.Config, Reorders: o.Reorders}
}

// =============================================================================
// Results
// =============================================================================

// Result holds the outputs of one pipeline run.
type Result struct {
	// Label is the snapshot label.
	Label string

	// SnapshotHash is the content hash of the input snapshot.
	SnapshotHash string

	// Scene is the positioned scene. It is nil when every artifact came
	// from the cache.
	Scene *scene.Scene

	// Summary describes the scene and is always set.
	Summary Summary

	// Artifacts holds the rendered outputs by format.
	Artifacts map[sink.Format][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Summary is the cacheable description of a built scene.
type Summary struct {
	Objects    int      `msgpack:"objects" json:"objects"`
	References int      `msgpack:"references" json:"references"`
	Variables  int      `msgpack:"variables" json:"variables"`
	Width      float64  `msgpack:"width" json:"width"`
	Height     float64  `msgpack:"height" json:"height"`
	Issues     []string `msgpack:"issues,omitempty" json:"issues,omitempty"`
}

// Stats contains stage timings.
type Stats struct {
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo reports whether the run was served from the cache.
type CacheInfo struct {
	RenderHit bool // all artifacts and the summary came from cache
}

func summarize(sc *scene.Scene) Summary {
	w, h := sc.Canvas()
	s := Summary{
		Objects:    len(sc.Objects()),
		References: len(sc.References()),
		Variables:  len(sc.Variables()),
		Width:      w,
		Height:     h,
	}
	for _, err := range sc.Issues() {
		s.Issues = append(s.Issues, err.Error())
	}
	return s
}

func stageErr(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}
