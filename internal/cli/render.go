package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/pipeline"
	"github.com/matzehuels/memviz/pkg/sink"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	settingsFlags
	output     string // output file, or base path for several formats
	checkpoint int    // checkpoint index; negative counts from the end
}

// renderCommand draws one checkpoint of a snapshot file.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{checkpoint: -1}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a snapshot to SVG, PNG, JSON, or DOT",
		Long: `Render one checkpoint of a snapshot or trace file (.json, .yaml, .msgpack).

By default the last checkpoint is drawn and the output is written next to the
input file with the format's extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := opts.options(cmd)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts, popts)
		},
	}

	opts.register(cmd, "output format(s): svg (default), png, json, dot, graphviz (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().IntVarP(&opts.checkpoint, "checkpoint", "c", opts.checkpoint, "checkpoint index (negative counts from the end)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts, popts pipeline.Options) error {
	trace, err := node.ReadFile(input)
	if err != nil {
		return err
	}
	s, idx, err := selectCheckpoint(trace, opts.checkpoint)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded snapshot", "file", input, "checkpoint", idx, "label", s.Label)

	runner, err := c.newRunner(opts.noCache, 0)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering checkpoint %d...", idx))
	spinner.Start()
	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, s, popts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered checkpoint %d", idx))

	printSummary(result.Summary, result.CacheInfo.RenderHit)
	for _, issue := range result.Summary.Issues {
		printWarning("%s", issue)
	}

	base := basePath(opts.output, input)
	for _, f := range popts.Formats {
		path := outputPath(opts.output, base, f, len(popts.Formats))
		if err := writeOutput(path, result.Artifacts[f]); err != nil {
			return err
		}
		if path != "-" {
			printFile(path)
		}
	}
	return nil
}

// selectCheckpoint returns checkpoint i; negative i counts from the end.
func selectCheckpoint(t node.Trace, i int) (node.Snapshot, int, error) {
	n := len(t.Checkpoints)
	if n == 0 {
		return node.Snapshot{}, 0, errors.New(errors.ErrCodeInvalidInput, "file has no checkpoints")
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return node.Snapshot{}, 0, errors.New(errors.ErrCodeInvalidInput, "checkpoint out of range (file has %d)", n)
	}
	return t.Checkpoints[i], i, nil
}

// basePath derives the base output path. With no output it strips the
// extension from input; a known format extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, err := sink.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath picks the file for one format: the explicit output when it is
// the only format, otherwise base plus the format's extension. Graphviz SVG
// gets a suffix so it does not overwrite the grid SVG.
func outputPath(output, base string, f sink.Format, formats int) string {
	if output != "" && formats == 1 {
		return output
	}
	if f == sink.FormatGraphviz {
		return base + ".graphviz." + f.Ext()
	}
	return base + "." + f.Ext()
}
