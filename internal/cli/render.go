package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/internal/watch"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file (default: <input>.<format>)
	format   string // svg, png or dot
	detailed bool   // print descriptions under labels
	free     bool   // let the engine place topics instead of pinning them
	noCache  bool   // bypass the artifact cache
	watch    bool   // re-render whenever the input changes
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: string(render.FormatSVG)}

	cmd := &cobra.Command{
		Use:   "render [map]",
		Short: "Draw a map as SVG, PNG or Graphviz DOT",
		Long: `Draw a map as SVG, PNG or Graphviz DOT.

Topics are drawn at their canvas positions, so run 'layout' first for a
tidy picture or pass --free to let Graphviz place them. Rendered files are
cached by content; unchanged maps are not redrawn.

With --watch the command stays running and redraws the map every time the
file is saved.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMap(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, png, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show topic descriptions")
	cmd.Flags().BoolVar(&opts.free, "free", false, "let the layout engine place topics")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the map changes")

	return cmd
}

// runRender renders once and, with --watch, again after every change.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + string(format)
	}

	store, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()
	r := render.NewRenderer(store, nil)
	ropts := render.Options{Detailed: opts.detailed, Free: opts.free}

	if err := c.renderOnce(ctx, r, input, output, format, ropts); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	printNewline()
	printInfo("Watching %s (ctrl+c to stop)", input)
	logger := loggerFromContext(ctx)
	err = watch.File(ctx, input, func() {
		if err := c.renderOnce(ctx, r, input, output, format, ropts); err != nil {
			// A half-saved file is common while editing; keep watching.
			printError("%v", err)
		}
	}, watch.WithLogger(logger))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *CLI) renderOnce(ctx context.Context, r *render.Renderer, input, output string, format render.Format, opts render.Options) error {
	spinner := newSpinner(ctx, "Reading "+filepath.Base(input)+"...")
	spinner.Start()
	prog := newProgress(c.Logger)

	m, err := mindmap.ReadFile(input)
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.SetMessage(fmt.Sprintf("Rendering %d topics as %s...", m.NodeCount(), format))

	data, cached, err := r.Render(ctx, m, format, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render %s: %w", input, err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	prog.done("Rendered", "output", output, "cached", cached)

	printSuccess("Rendered %s", format)
	printFile(output)
	printStats(m.NodeCount(), m.EdgeCount(), &cached)
	return nil
}
