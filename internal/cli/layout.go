package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/config"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// layoutOpts holds the command-line overrides of the [layout] config section.
type layoutOpts struct {
	output     string  // output file (default: overwrite the input)
	root       string  // topic the layout starts from
	horizontal float64 // radius of each fan of children
	vertical   float64 // downward shift per level
	strict     bool    // reject maps that are not trees
}

// layoutCommand creates the layout command that runs the radial auto-layout.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:     "layout [map]",
		Aliases: []string{"organize"},
		Short:   "Arrange topics radially around the central topic",
		Long: `Arrange topics radially around the central topic.

Starting from the root, the children of every topic are spread over a
half-circle below and to the side of it, one level at a time. Topics that
cannot be reached from the root keep their position. Connections added by
hand may form cycles or give a topic two parents; the first placement
wins, unless --strict is set, in which case such maps are rejected.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMap(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: overwrite the input)")
	cmd.Flags().StringVar(&opts.root, "root", "", "topic to start from (default from config)")
	cmd.Flags().Float64Var(&opts.horizontal, "horizontal-spacing", 0, "radius of each fan of children (default from config)")
	cmd.Flags().Float64Var(&opts.vertical, "vertical-spacing", 0, "downward shift per level (default from config)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on cycles and topics with several parents")

	return cmd
}

// runLayout loads the map, organizes it and writes it back.
func (c *CLI) runLayout(ctx context.Context, cmd *cobra.Command, input string, opts layoutOpts) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	lc := opts.apply(cmd, cfg.Layout)
	if err := lc.Validate(); err != nil {
		return err
	}

	sess, err := c.openSession(input, lc, 0)
	if err != nil {
		return err
	}

	prog := newProgress(loggerFromContext(ctx))
	placed, err := sess.Organize(ctx)
	if err != nil {
		return err
	}
	prog.done("Placed topics", "placed", placed, "root", sess.Root())

	output := opts.output
	if output == "" {
		output = input
	}
	m := sess.Snapshot()
	if err := mindmap.WriteFile(m, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(m.NodeCount(), m.EdgeCount(), nil)
	unplaced := m.NodeCount() - placed
	if _, ok := m.Node(lc.Root); ok {
		unplaced--
	}
	if unplaced > 0 {
		printWarning("%d topics are not reachable from %s and kept their position", unplaced, lc.Root)
	}
	printNewline()
	printNextStep("Render", appName+" render "+output)
	return nil
}

// apply overlays the flags the user set on the config section.
func (o layoutOpts) apply(cmd *cobra.Command, lc config.LayoutConfig) config.LayoutConfig {
	flags := cmd.Flags()
	if flags.Changed("root") {
		lc.Root = o.root
	}
	if flags.Changed("horizontal-spacing") {
		lc.HorizontalSpacing = o.horizontal
	}
	if flags.Changed("vertical-spacing") {
		lc.VerticalSpacing = o.vertical
	}
	if o.strict {
		lc.Strict = true
	}
	return lc
}
