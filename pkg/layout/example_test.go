package layout_test

import (
	"fmt"

	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
)

func ExampleOrganize() {
	m := mindmap.New("Trip")
	for _, id := range []string{"2", "3"} {
		m = m.WithNode(mindmap.Node{ID: id, Label: "Topic " + id}).
			WithEdge(mindmap.Edge{ID: mindmap.EdgeID("1", id), Source: "1", Target: id})
	}

	nodes := layout.Organize(m.Nodes, m.Edges, mindmap.DefaultRootID)
	for _, n := range nodes {
		fmt.Printf("%s (%.0f, %.0f)\n", n.Label, n.Position.X, n.Position.Y)
	}
	// Output:
	// Central Topic (250, 100)
	// Topic 2 (250, 0)
	// Topic 3 (450, 200)
}

func ExampleCheckTree() {
	edges := []mindmap.Edge{
		{ID: "e1-2", Source: "1", Target: "2"},
		{ID: "e2-1", Source: "2", Target: "1"},
	}
	fmt.Println(layout.CheckTree(edges, "1"))
	// Output:
	// cycle reachable from root: 2 -> 1
}
