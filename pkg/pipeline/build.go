package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/scene"
)

// Build resolves a snapshot into an unpositioned scene and applies the
// requested reorders in identity order. Malformed nodes are logged as
// warnings through opts.Logger.
func Build(ctx context.Context, s node.Snapshot, opts Options) (*scene.Scene, error) {
	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, s.Label)
	start := time.Now()

	sc, err := scene.Build(s, opts.Config.SceneOptions())
	if err == nil {
		err = applyReorders(sc, opts.Reorders)
	}

	objects, issues := 0, 0
	if sc != nil {
		objects, issues = len(sc.Objects()), len(sc.Issues())
	}
	hooks.OnBuildComplete(ctx, s.Label, objects, issues, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if opts.Logger != nil {
		for _, issue := range sc.Issues() {
			opts.Logger.Warn("malformed node", "label", s.Label, "err", issue)
		}
	}
	return sc, nil
}

func applyReorders(sc *scene.Scene, reorders map[string][]int) error {
	ids := make([]string, 0, len(reorders))
	for id := range reorders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := sc.Reorder(id, reorders[id]); err != nil {
			return err
		}
	}
	return nil
}
