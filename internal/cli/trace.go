package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/pipeline"
)

type traceOpts struct {
	settingsFlags
	outDir      string
	pick        bool
	concurrency int
}

// traceCommand renders every checkpoint of a trace, or one picked
// interactively.
func (c *CLI) traceCommand() *cobra.Command {
	var opts traceOpts

	cmd := &cobra.Command{
		Use:   "trace [file]",
		Short: "Render every checkpoint of a trace",
		Long: `Render every checkpoint of a trace file in parallel. Files are named
<name>-<index>.<ext> inside the output directory.

With --pick an interactive list selects a single checkpoint to render.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := opts.options(cmd)
			if err != nil {
				return err
			}
			popts.Concurrency = opts.concurrency
			return c.runTrace(cmd.Context(), args[0], &opts, popts)
		},
	}

	opts.register(cmd, "output format(s): svg (default), png, json, dot, graphviz (comma-separated)")
	cmd.Flags().StringVarP(&opts.outDir, "output-dir", "o", ".", "directory for rendered files")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose one checkpoint interactively")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "checkpoints rendered in parallel (default GOMAXPROCS)")

	return cmd
}

func (c *CLI) runTrace(ctx context.Context, input string, opts *traceOpts, popts pipeline.Options) error {
	trace, err := node.ReadFile(input)
	if err != nil {
		return err
	}
	if len(trace.Checkpoints) == 0 {
		printDetail("No checkpoints in %s", input)
		return nil
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	runner, err := c.newRunner(opts.noCache, len(trace.Checkpoints)*(len(popts.Formats)+1))
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.pick {
		idx, ok, err := pickCheckpoint(trace)
		if err != nil || !ok {
			return err
		}
		result, err := runner.Execute(ctx, trace.Checkpoints[idx], popts)
		if err != nil {
			return err
		}
		printSummary(result.Summary, result.CacheInfo.RenderHit)
		return writeCheckpoint(opts.outDir, name, idx, result, popts)
	}

	printInfo("Rendering %d checkpoints", len(trace.Checkpoints))
	spinner := newSpinnerWithContext(ctx, "Rendering trace...")
	spinner.Start()
	prog := newProgress(c.Logger)
	results, err := runner.ExecuteTrace(ctx, trace, popts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Trace failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Rendered %d checkpoints", len(results)))
	prog.done("Trace complete")

	for i, res := range results {
		if n := len(res.Summary.Issues); n > 0 {
			printWarning("checkpoint %d: %d malformed nodes", i, n)
		}
		if err := writeCheckpoint(opts.outDir, name, i, res, popts); err != nil {
			return err
		}
	}
	printNextStep("Inspect one checkpoint", fmt.Sprintf("%s layout %s -c <index>", appName, input))
	return nil
}

// pickCheckpoint runs the interactive picker. ok is false when the user quit
// without choosing.
func pickCheckpoint(t node.Trace) (int, bool, error) {
	final, err := tea.NewProgram(NewCheckpointListModel(t)).Run()
	if err != nil {
		return 0, false, err
	}
	m, ok := final.(CheckpointListModel)
	if !ok || m.Selected < 0 {
		printDetail("No selection made")
		return 0, false, nil
	}
	return m.Selected, true, nil
}

func writeCheckpoint(dir, name string, idx int, res *pipeline.Result, popts pipeline.Options) error {
	base := filepath.Join(dir, fmt.Sprintf("%s-%d", name, idx))
	for _, f := range popts.Formats {
		path := outputPath("", base, f, len(popts.Formats))
		if err := writeOutput(path, res.Artifacts[f]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}
