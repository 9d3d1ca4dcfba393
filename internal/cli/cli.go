// Package cli implements the memviz command-line interface.
//
// # Commands
//
//   - render: draw one checkpoint of a snapshot file
//   - layout: print the computed positions of one checkpoint
//   - trace: draw every checkpoint, or pick one interactively
//   - serve: expose rendering over HTTP
//   - completion: shell completion scripts
//
// All commands accept --verbose (-v) for debug logging and --config for a
// TOML settings file.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memviz/pkg/buildinfo"
	"github.com/matzehuels/memviz/pkg/cache"
	"github.com/matzehuels/memviz/pkg/config"
	"github.com/matzehuels/memviz/pkg/errors"
	"github.com/matzehuels/memviz/pkg/pipeline"
	"github.com/matzehuels/memviz/pkg/sink"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "memviz"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI that logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "memviz draws program memory snapshots as box-and-arrow diagrams",
		Long:         `memviz turns snapshots of a program's variables and objects into diagrams: every object becomes a shape on a grid and every reference becomes an arrow.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with an in-memory cache.
func (c *CLI) newRunner(noCache bool, size int) (*pipeline.Runner, error) {
	if noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, c.Logger), nil
	}
	lru, err := cache.NewLRU(size)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(lru, nil, c.Logger), nil
}

// =============================================================================
// Shared Flags
// =============================================================================

// settingsFlags are the config overrides shared by every drawing command.
// Flags win over the config file, which wins over defaults.
type settingsFlags struct {
	configPath   string
	cellSize     float64
	gridCells    int
	showInternal bool
	primitiveEra bool
	formats      string
	reorders     []string
	noCache      bool
}

func (f *settingsFlags) register(cmd *cobra.Command, formatHelp string) {
	def := config.Default()
	cmd.Flags().StringVar(&f.configPath, "config", "", "TOML config file")
	cmd.Flags().Float64Var(&f.cellSize, "cell-size", def.CellSize, "grid cell size in pixels")
	cmd.Flags().IntVar(&f.gridCells, "grid-cells", def.GridCells, "grid cells per side")
	cmd.Flags().BoolVar(&f.showInternal, "show-internal", def.ShowInternalAttributes, "show internal attributes of objects")
	cmd.Flags().BoolVar(&f.primitiveEra, "primitive-era", def.PrimitiveEra, "draw primitives as separate values instead of inline text")
	cmd.Flags().StringArrayVar(&f.reorders, "reorder", nil, "permute slots (or a frame: globals, locals) before layout, as id=2,0,1 (repeatable)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the in-memory render cache")
	if formatHelp != "" {
		cmd.Flags().StringVarP(&f.formats, "format", "f", "", formatHelp)
	}
}

// options resolves config file and flags into pipeline options.
func (f *settingsFlags) options(cmd *cobra.Command) (pipeline.Options, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return pipeline.Options{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("cell-size") {
		cfg.CellSize = f.cellSize
	}
	if flags.Changed("grid-cells") {
		cfg.GridCells = f.gridCells
	}
	if flags.Changed("show-internal") {
		cfg.ShowInternalAttributes = f.showInternal
	}
	if flags.Changed("primitive-era") {
		cfg.PrimitiveEra = f.primitiveEra
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	formats, err := parseFormats(f.formats, cfg.Format)
	if err != nil {
		return pipeline.Options{}, err
	}
	reorders, err := parseReorders(f.reorders)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{Config: cfg, Formats: formats, Reorders: reorders}, nil
}

// parseFormats parses a comma-separated format list, falling back to def
// and then to SVG.
func parseFormats(s, def string) ([]sink.Format, error) {
	if s == "" {
		s = def
	}
	if s == "" {
		return []sink.Format{sink.FormatSVG}, nil
	}
	var out []sink.Format
	for _, part := range strings.Split(s, ",") {
		f, err := sink.ParseFormat(part)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseReorders parses "id=2,0,1" arguments.
func parseReorders(args []string) (map[string][]int, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string][]int, len(args))
	for _, arg := range args {
		id, list, ok := strings.Cut(arg, "=")
		if !ok || id == "" || list == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid --reorder %q (want id=2,0,1)", arg)
		}
		var perm []int
		for _, p := range strings.Split(list, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, errors.New(errors.ErrCodeInvalidInput, "invalid --reorder %q: %v", arg, err)
			}
			perm = append(perm, n)
		}
		out[id] = perm
	}
	return out, nil
}

// =============================================================================
// Output Helpers
// =============================================================================

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, or stdout when path is empty or "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
