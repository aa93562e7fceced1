package layout

import (
	"errors"
	"fmt"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

var (
	// ErrCycle is returned when an edge reachable from the root points back
	// at one of its ancestors.
	ErrCycle = errors.New("cycle reachable from root")

	// ErrMultipleParents is returned when a node reachable from the root has
	// more than one incoming edge from the reachable part of the graph.
	ErrMultipleParents = errors.New("node has multiple parents")
)

// CheckTree verifies that the edges reachable from root form a tree.
//
// It walks depth-first with white/gray/black coloring. An edge into a gray
// node closes a cycle; an edge into a black node is a second parent. Edges
// not reachable from root are ignored, as are edges into root's subtree
// from outside it.
func CheckTree(edges []mindmap.Edge, root string) error {
	const (
		white = iota
		gray
		black
	)

	children := make(map[string][]string)
	for _, e := range edges {
		children[e.Source] = append(children[e.Source], e.Target)
	}

	color := make(map[string]int)
	var dfs func(id string) error
	dfs = func(id string) error {
		color[id] = gray
		for _, c := range children[id] {
			switch color[c] {
			case white:
				if err := dfs(c); err != nil {
					return err
				}
			case gray:
				return fmt.Errorf("%w: %s -> %s", ErrCycle, id, c)
			case black:
				return fmt.Errorf("%w: %s", ErrMultipleParents, c)
			}
		}
		color[id] = black
		return nil
	}
	return dfs(root)
}
