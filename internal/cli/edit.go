package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmap/pkg/editor"
	apperrors "github.com/matzehuels/mindmap/pkg/errors"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// =============================================================================
// new
// =============================================================================

func (c *CLI) newCommand() *cobra.Command {
	var (
		title string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "new [map.json|map.yaml]",
		Short: "Create a map containing only the central topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := apperrors.ValidatePath(path); err != nil {
				return err
			}
			if err := apperrors.ValidateTitle(title); err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			if err := mindmap.WriteFile(mindmap.New(title), path); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			printSuccess("Created mind map")
			printFile(path)
			printNewline()
			printNextStep("Add a topic", appName+" add "+path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "map title")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// =============================================================================
// Gestures
// =============================================================================

// gesture loads the map at path, applies fn and writes the result back.
func (c *CLI) gesture(path string, seed uint64, fn func(*editor.Session) error) (mindmap.MindMap, error) {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return mindmap.MindMap{}, err
	}
	sess, err := c.openSession(path, cfg.Layout, seed)
	if err != nil {
		return mindmap.MindMap{}, err
	}
	if err := fn(sess); err != nil {
		return mindmap.MindMap{}, err
	}
	m := sess.Snapshot()
	if err := mindmap.WriteFile(m, path); err != nil {
		return mindmap.MindMap{}, fmt.Errorf("write %s: %w", path, err)
	}
	return m, nil
}

func (c *CLI) addCommand() *cobra.Command {
	var (
		label string
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "add [map]",
		Short: "Add a topic under the central topic",
		Long: `Add a topic under the central topic.

The topic is dropped at a random point of the canvas and connected to the
central topic, like the "Add Topic" button of the editor. Run 'layout'
afterwards to arrange it.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeMap(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if label != "" {
				if err := apperrors.ValidateLabel(label); err != nil {
					return err
				}
			}
			var node mindmap.Node
			m, err := c.gesture(args[0], seed, func(s *editor.Session) error {
				node, _ = s.AddTopicLabeled(label)
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Added topic %s %s", StyleHighlight.Render(node.ID), StyleDim.Render(strconv.Quote(node.Label)))
			printStats(m.NodeCount(), m.EdgeCount(), nil)
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", `topic label (default "Topic <id>")`)
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for the spawn position (0 = random)")
	return cmd
}

func (c *CLI) connectCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "connect [map] [source] [target]",
		Short:             "Connect two topics",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeMap(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, target := args[1], args[2]
			var added bool
			_, err := c.gesture(args[0], 0, func(s *editor.Session) error {
				var err error
				_, added, err = s.Connect(source, target)
				return err
			})
			if err != nil {
				return err
			}
			if !added {
				printInfo("%s → %s already connected", source, target)
				return nil
			}
			printSuccess("Connected %s → %s", source, target)
			return nil
		},
	}
}

func (c *CLI) moveCommand() *cobra.Command {
	var relative bool

	cmd := &cobra.Command{
		Use:               "move [map] [id] [x] [y]",
		Short:             "Move a topic to a canvas position",
		Args:              cobra.ExactArgs(4),
		ValidArgsFunction: completeMap(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			x, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid x %q: %w", args[2], err)
			}
			y, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("invalid y %q: %w", args[3], err)
			}
			p := mindmap.Position{X: x, Y: y}
			if !p.IsFinite() {
				return mindmap.ErrInvalidPosition
			}

			m, err := c.gesture(args[0], 0, func(s *editor.Session) error {
				if relative {
					return s.Nudge(id, x, y)
				}
				return s.Move(id, p)
			})
			if err != nil {
				return err
			}
			n, _ := m.Node(id)
			printSuccess("Moved %s to (%.1f, %.1f)", id, n.Position.X, n.Position.Y)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&relative, "relative", "r", false, "treat x and y as an offset")
	return cmd
}

func (c *CLI) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rename [map] [id] [label]",
		Short:             "Change the label of a topic",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeMap(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, label := args[1], args[2]
			if err := apperrors.ValidateLabel(label); err != nil {
				return err
			}
			if _, err := c.gesture(args[0], 0, func(s *editor.Session) error {
				return s.Rename(id, label)
			}); err != nil {
				return err
			}
			printSuccess("Renamed %s to %q", id, label)
			return nil
		},
	}
}

func (c *CLI) describeCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "describe [map] [id] [text]",
		Short:             "Attach a description to a topic",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeMap(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			if _, err := c.gesture(args[0], 0, func(s *editor.Session) error {
				return s.Describe(id, args[2])
			}); err != nil {
				return err
			}
			printSuccess("Described %s", id)
			return nil
		},
	}
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "remove [map] [id]",
		Aliases:           []string{"rm"},
		Short:             "Remove a topic and its connections",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeMap(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[1]
			m, err := c.gesture(args[0], 0, func(s *editor.Session) error {
				return s.Remove(id)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", id)
			printStats(m.NodeCount(), m.EdgeCount(), nil)
			return nil
		},
	}
}
