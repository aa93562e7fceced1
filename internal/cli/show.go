package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// showCommand prints the topics of a map as a table.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show [map]",
		Short:             "List the topics of a map",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMap(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			m, err := mindmap.ReadFile(args[0])
			if err != nil {
				return err
			}

			title := m.Title
			if title == "" {
				title = args[0]
			}
			fmt.Fprintln(stdout, StyleTitle.Render(title))
			fmt.Fprintln(stdout, nodeTable(m, cfg.Layout.Root, -1))
			printStats(m.NodeCount(), m.EdgeCount(), nil)
			return nil
		},
	}
}

// statsCommand prints structure metrics of a map.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [map]",
		Short: "Show structure metrics of a map",
		Long: `Show structure metrics of a map.

Depth is measured from the root topic along connections. Topics that
cannot be reached from the root are counted as orphans; 'layout' leaves
them where they are.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMap(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.loadConfig()
			if err != nil {
				return err
			}
			m, err := mindmap.ReadFile(args[0])
			if err != nil {
				return err
			}
			s := m.Analyze(cfg.Layout.Root)

			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			printKeyValue("Topics", strconv.Itoa(s.TotalNodes))
			printKeyValue("Connections", strconv.Itoa(s.TotalEdges))
			printKeyValue("Max depth", strconv.Itoa(s.MaxDepth))
			printKeyValue("Avg connections", strconv.FormatFloat(s.AvgConnections, 'f', 2, 64))
			printKeyValue("Complexity", strconv.FormatFloat(s.ComplexityScore, 'f', 2, 64))
			printKeyValue("Orphans", strconv.Itoa(s.Orphans))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
