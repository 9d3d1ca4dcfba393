package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/memviz/pkg/cache"
	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/sink"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeScene    = "scene"
	keyTypeArtifact = "artifact"
)

// TTL for cached entries. Inputs are content-addressed, so entries only
// expire to bound memory in long-running servers.
const TTL = time.Hour

// Runner executes the pipeline with memoization.
//
// The Runner holds no per-run state; one Runner may serve many goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default keyer, and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs build → layout → render for one snapshot.
func (r *Runner) Execute(ctx context.Context, s node.Snapshot, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	data, err := node.Marshal(s)
	if err != nil {
		return nil, err
	}
	result := &Result{Label: s.Label, SnapshotHash: cache.Hash(data)}
	sceneKey := r.Keyer.SceneKey(result.SnapshotHash, opts.sceneKeyOpts())

	if !opts.Refresh {
		if summary, artifacts, ok := r.lookup(ctx, sceneKey, opts.Formats); ok {
			result.Summary = summary
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			opts.Logger.Debug("served from cache", "label", s.Label, "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 1: Build
	start := time.Now()
	sc, err := Build(ctx, s, opts)
	if err != nil {
		return nil, stageErr("build", err)
	}
	result.Stats.BuildTime = time.Since(start)
	opts.Logger.Debug("built scene",
		"objects", len(sc.Objects()),
		"references", len(sc.References()),
		"duration", result.Stats.BuildTime)

	// Stage 2: Layout
	start = time.Now()
	if err := Layout(ctx, sc, opts); err != nil {
		return nil, stageErr("layout", err)
	}
	result.Stats.LayoutTime = time.Since(start)
	result.Scene = sc
	result.Summary = summarize(sc)
	opts.Logger.Debug("computed layout",
		"width", result.Summary.Width,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	start = time.Now()
	artifacts, err := Render(ctx, sc, opts.Formats)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	opts.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	r.store(ctx, sceneKey, result, opts.Logger)
	return result, nil
}

// ExecuteTrace runs the pipeline for every checkpoint of a trace with at most
// opts.Concurrency checkpoints in flight. Results are in checkpoint order.
// The first failure cancels the remaining checkpoints.
func (r *Runner) ExecuteTrace(ctx context.Context, t node.Trace, opts Options) ([]*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	results := make([]*Result, len(t.Checkpoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, s := range t.Checkpoints {
		g.Go(func() error {
			o := opts
			o.Formats = append([]sink.Format(nil), opts.Formats...)
			res, err := r.Execute(gctx, s, o)
			if err != nil {
				return fmt.Errorf("checkpoint %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts.Logger.Info("processed trace", "checkpoints", len(results), "formats", opts.Formats)
	return results, nil
}

// lookup returns the cached summary and every requested artifact, or false
// if any of them is missing.
func (r *Runner) lookup(ctx context.Context, sceneKey string, formats []sink.Format) (Summary, map[sink.Format][]byte, bool) {
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, sceneKey)
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, keyTypeScene)
		return Summary{}, nil, false
	}
	var summary Summary
	if err := msgpack.Unmarshal(data, &summary); err != nil {
		hooks.OnCacheMiss(ctx, keyTypeScene)
		return Summary{}, nil, false
	}
	hooks.OnCacheHit(ctx, keyTypeScene)

	artifacts := make(map[sink.Format][]byte, len(formats))
	for _, f := range formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(sceneKey, string(f)))
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
			return Summary{}, nil, false
		}
		hooks.OnCacheHit(ctx, keyTypeArtifact)
		artifacts[f] = data
	}
	return summary, artifacts, true
}

// store writes the summary and artifacts. Cache failures are logged and
// otherwise ignored.
func (r *Runner) store(ctx context.Context, sceneKey string, res *Result, logger *log.Logger) {
	hooks := observability.Cache()

	data, err := msgpack.Marshal(res.Summary)
	if err != nil {
		logger.Debug("encode summary", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, sceneKey, data, TTL); err != nil {
		logger.Debug("cache write failed", "err", err)
		return
	}
	hooks.OnCacheSet(ctx, keyTypeScene, len(data))

	for f, data := range res.Artifacts {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(sceneKey, string(f)), data, TTL); err != nil {
			logger.Debug("cache write failed", "format", f, "err", err)
			continue
		}
		hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
}

// applyLogger routes a run's diagnostics to the runner's logger unless the
// caller supplied one.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger != nil {
		return
	}
	opts.Logger = r.Logger
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
