package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/scene"
	"github.com/matzehuels/memviz/pkg/sink"
)

// Render encodes a positioned scene in every requested format.
func Render(ctx context.Context, sc *scene.Scene, formats []sink.Format) (map[sink.Format][]byte, error) {
	artifacts := make(map[sink.Format][]byte, len(formats))
	for _, f := range formats {
		data, err := renderOne(ctx, sc, f)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", f, err)
		}
		artifacts[f] = data
	}
	return artifacts, nil
}

func renderOne(ctx context.Context, sc *scene.Scene, f sink.Format) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, string(f))
	start := time.Now()

	data, err := sink.Render(ctx, sc, f)

	hooks.OnRenderComplete(ctx, string(f), len(data), time.Since(start), err)
	return data, err
}
