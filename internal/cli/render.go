package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/pipeline"
	"github.com/matzehuels/meshmap/pkg/source"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file path (or base path for multiple outputs)
	formats []string // output formats
	width   float64
	height  float64
	ticks   int
	seed    uint64
	labels  bool
	scale   float64
	noCache bool
	refresh bool
	source  sourceFlags
}

// renderCommand creates the render command. It loads a topology, settles
// the force layout headlessly and writes the requested formats.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [topology]",
		Short: "Settle a network map and export it",
		Long: `Render loads a network map (JSON, YAML or TOML file, SQLite database or the
configured source), runs the force simulation until it settles and writes the
result. Outputs are cached by topology and options.`,
		Example: `  meshmap render networkmap.json
  meshmap render networkmap.yaml -o mesh.png --scale 2
  meshmap render mesh.db -f svg,dot,json -o out/mesh`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, jpg, pdf, dot, json (comma-separated)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	cmd.Flags().Float64Var(&opts.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "maximum simulation ticks before export (default from config)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for initial placement (default from config)")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "label devices in DOT, PNG and JPG output")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "render PNG through rsvg-convert at this scale")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	cmd.ValidArgsFunction = completeTopologyFile
	opts.source.register(cmd, "source")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, args []string, opts *renderOpts) error {
	ctx := cmd.Context()

	src, err := c.openSource(ctx, &opts.source, args)
	if err != nil {
		return err
	}
	defer src.Close()

	formats, err := outputFormats(opts.output, opts.formats)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, stale, err := runner.Load(ctx, src)
	if err != nil {
		return err
	}
	if stale {
		printWarning("%s unavailable, using last good snapshot", src.Name())
	}

	popts := c.exportOptions()
	popts.Formats = formats
	popts.Labels = opts.labels
	popts.Scale = opts.scale
	popts.Refresh = opts.refresh
	if opts.width > 0 {
		popts.Sim.Width = opts.width
	}
	if opts.height > 0 {
		popts.Sim.Height = opts.height
	}
	if opts.ticks > 0 {
		popts.SettleTicks = opts.ticks
	}
	if opts.seed > 0 {
		popts.Sim.Seed = opts.seed
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Settling %d devices...", len(g.Nodes)))
	restore := trackSettle(spinner, popts.SettleTicks)
	spinner.Start()
	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, g, popts)
	spinner.Stop()
	restore()
	if err != nil {
		return err
	}
	prog.done("rendered",
		"formats", strings.Join(formats, ","),
		"devices", result.Stats.NodeCount,
		"ticks", result.Stats.Ticks,
		"cached", result.CacheInfo.RenderHit)

	paths := outputPaths(opts.output, sourceBase(src, args), formats)
	for _, f := range formats {
		if err := writeOutput(paths[f], result.Artifacts[f]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", src.Name())
	state := stateFresh
	switch {
	case stale:
		state = stateStale
	case result.CacheInfo.RenderHit:
		state = stateCached
	}
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, state)
	for _, f := range formats {
		printFile(paths[f])
	}
	if len(args) > 0 {
		printNewline()
		printNextStep("Explore it live", appName+" serve "+args[0])
	}
	return nil
}

// outputFormats picks the formats to render: explicit --format values, the
// extension of --output, or SVG.
func outputFormats(output string, formats []string) ([]string, error) {
	if len(formats) > 0 {
		return formats, nil
	}
	if output != "" && filepath.Ext(output) != "" {
		f, err := pipeline.FormatFromPath(output)
		if err != nil {
			return nil, err
		}
		return []string{f}, nil
	}
	return []string{pipeline.FormatSVG}, nil
}

// outputPaths maps each format to a file path. A single format with an
// explicit output uses it verbatim; otherwise files are named base.format.
func outputPaths(output, fallback string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, fallback)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath derives the base output path. If output is empty, it strips the
// extension from input. A known format extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	f := strings.ToLower(strings.TrimPrefix(ext, "."))
	if pipeline.ValidFormats[f] || f == "jpeg" {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// sourceBase names outputs after the input file, or after the app when the
// topology came from a database.
func sourceBase(src source.Source, args []string) string {
	if len(args) > 0 {
		if _, ok := src.(*source.File); ok {
			return args[0]
		}
	}
	return appName
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

