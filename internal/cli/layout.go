package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memviz/pkg/node"
	"github.com/matzehuels/memviz/pkg/pipeline"
	"github.com/matzehuels/memviz/pkg/sink"
)

type layoutOpts struct {
	settingsFlags
	output     string
	checkpoint int
}

// layoutCommand prints where each object and variable of a checkpoint lands.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOpts{checkpoint: -1}

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute positions for a snapshot",
		Long: `Compute the grid layout of one checkpoint and print a table of object
positions. With --output the positioned scene is written as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := opts.options(cmd)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], &opts, popts)
		},
	}

	opts.register(cmd, "")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the positioned scene as JSON")
	cmd.Flags().IntVarP(&opts.checkpoint, "checkpoint", "c", opts.checkpoint, "checkpoint index (negative counts from the end)")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts *layoutOpts, popts pipeline.Options) error {
	trace, err := node.ReadFile(input)
	if err != nil {
		return err
	}
	s, idx, err := selectCheckpoint(trace, opts.checkpoint)
	if err != nil {
		return err
	}

	// The table needs the live scene, so skip cached artifacts.
	runner, err := c.newRunner(true, 0)
	if err != nil {
		return err
	}
	popts.Formats = []sink.Format{sink.FormatJSON}
	result, err := runner.Execute(ctx, s, popts)
	if err != nil {
		return err
	}

	doc, err := sink.ExportJSON(result.Scene)
	if err != nil {
		return err
	}
	fmt.Println(StyleTitle.Render(fmt.Sprintf("Checkpoint %d", idx)) + " " + StyleDim.Render(s.Label))
	fmt.Println(layoutTable(doc))
	printSummary(result.Summary, false)

	if opts.output != "" {
		if err := writeOutput(opts.output, result.Artifacts[sink.FormatJSON]); err != nil {
			return err
		}
		printFile(opts.output)
	}
	return nil
}

// layoutTable renders object placements as a bordered table.
func layoutTable(doc sink.Document) string {
	rows := make([][]string, 0, len(doc.Objects))
	for _, o := range doc.Objects {
		rows = append(rows, []string{
			o.ID,
			o.ShapeKind,
			fmt.Sprintf("%g,%g", o.X, o.Y),
			fmt.Sprintf("%gx%g", o.Width, o.Height),
			o.Header,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Shape", "Position", "Size", "Header").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
