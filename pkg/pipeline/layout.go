package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/memviz/pkg/gps"
	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/scene"
)

// Layout positions every object and variable of sc on the grid.
func Layout(ctx context.Context, sc *scene.Scene, opts Options) error {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(sc.Objects()))
	start := time.Now()

	err := gps.Layout(sc, opts.Config.LayoutOptions())

	hooks.OnLayoutComplete(ctx, time.Since(start), err)
	return err
}
