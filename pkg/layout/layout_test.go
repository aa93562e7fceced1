package layout

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func node(id string, x, y float64) mindmap.Node {
	return mindmap.Node{ID: id, Label: "Topic " + id, Position: mindmap.Position{X: x, Y: y}}
}

func edge(s, t string) mindmap.Edge {
	return mindmap.Edge{ID: mindmap.EdgeID(s, t), Source: s, Target: t}
}

// rootWithChildren builds a root at (250,100) with k children at arbitrary
// starting positions.
func rootWithChildren(k int) ([]mindmap.Node, []mindmap.Edge) {
	nodes := []mindmap.Node{node("1", 250, 100)}
	var edges []mindmap.Edge
	for i := range k {
		id := string(rune('2' + i))
		nodes = append(nodes, node(id, float64(17*i), float64(31*i)))
		edges = append(edges, edge("1", id))
	}
	return nodes, edges
}

func TestOrganize_TwoChildren(t *testing.T) {
	nodes, edges := rootWithChildren(2)
	out := Organize(nodes, edges, mindmap.DefaultRootID)

	root, a, b := out[0].Position, out[1].Position, out[2].Position
	if root != (mindmap.Position{X: 250, Y: 100}) {
		t.Errorf("root moved to %+v", root)
	}
	if a == b || a == root || b == root {
		t.Errorf("positions not distinct: root=%+v a=%+v b=%+v", root, a, b)
	}

	// θ0 = −π/2: straight up by the radius, then down by the vertical offset.
	if !near(a.X, 250) || !near(a.Y, 0) {
		t.Errorf("child 0 = %+v, want (250, 0)", a)
	}
	// θ1 = 0: to the right by the radius, down by the vertical offset.
	if !near(b.X, 450) || !near(b.Y, 200) {
		t.Errorf("child 1 = %+v, want (450, 200)", b)
	}
}

func TestOrganize_RadiusAndAngle(t *testing.T) {
	for _, k := range []int{1, 2, 3, 5, 8} {
		nodes, edges := rootWithChildren(k)
		out := Organize(nodes, edges, "1")
		center := mindmap.Position{X: 250, Y: 100 + DefaultVerticalSpacing}

		for i := range k {
			p := out[i+1].Position
			if d := p.DistanceTo(center); !near(d, DefaultHorizontalSpacing) {
				t.Errorf("k=%d i=%d: radius = %v, want %v", k, i, d, DefaultHorizontalSpacing)
			}
			got := math.Atan2(p.Y-DefaultVerticalSpacing-100, p.X-250)
			want := float64(i)/float64(k)*math.Pi - math.Pi/2
			if !near(got, want) {
				t.Errorf("k=%d i=%d: angle = %v, want %v", k, i, got, want)
			}
		}
	}
}

func TestOrganize_SingleChildIsAboveOffset(t *testing.T) {
	nodes, edges := rootWithChildren(1)
	out := Organize(nodes, edges, "1")
	if p := out[1].Position; !near(p.X, 250) || !near(p.Y, 0) {
		t.Errorf("single child = %+v, want (250, 0)", p)
	}
}

func TestOrganize_ChildrenFollowNewParentPosition(t *testing.T) {
	nodes := []mindmap.Node{node("1", 0, 0), node("2", 999, 999), node("3", -5, -5)}
	edges := []mindmap.Edge{edge("1", "2"), edge("2", "3")}

	out := Organize(nodes, edges, "1")

	parent := out[1].Position
	if !near(parent.X, 0) || !near(parent.Y, -100) {
		t.Fatalf("parent = %+v, want (0, -100)", parent)
	}
	child := out[2].Position
	if !near(child.X, 0) || !near(child.Y, -200) {
		t.Errorf("grandchild = %+v, want (0, -200) relative to the moved parent", child)
	}
}

func TestOrganize_UnreachableUnchanged(t *testing.T) {
	nodes := []mindmap.Node{node("1", 250, 100), node("2", 10, 10), node("3", 42, 7), node("4", 3, 3)}
	edges := []mindmap.Edge{edge("1", "2"), edge("3", "4")}

	out := Organize(nodes, edges, "1")
	if out[2].Position != nodes[2].Position {
		t.Errorf("unreachable node 3 moved to %+v", out[2].Position)
	}
	if out[3].Position != nodes[3].Position {
		t.Errorf("unreachable node 4 moved to %+v", out[3].Position)
	}
	if out[1].Position == nodes[1].Position {
		t.Error("reachable node 2 was not repositioned")
	}
}

func TestOrganize_PreservesOrderAndIdentity(t *testing.T) {
	nodes := []mindmap.Node{node("3", 1, 1), node("1", 250, 100), node("2", 2, 2)}
	nodes[0].Description = "kept"
	edges := []mindmap.Edge{edge("1", "2"), edge("1", "3")}

	out := Organize(nodes, edges, "1")
	if len(out) != len(nodes) {
		t.Fatalf("len = %d, want %d", len(out), len(nodes))
	}
	for i := range nodes {
		if out[i].ID != nodes[i].ID || out[i].Label != nodes[i].Label {
			t.Errorf("out[%d] = %s/%s, want %s/%s", i, out[i].ID, out[i].Label, nodes[i].ID, nodes[i].Label)
		}
	}
	if out[0].Description != "kept" {
		t.Error("description lost")
	}
}

func TestOrganize_DoesNotMutateInput(t *testing.T) {
	nodes, edges := rootWithChildren(3)
	before := append([]mindmap.Node(nil), nodes...)

	out := Organize(nodes, edges, "1")
	if !reflect.DeepEqual(nodes, before) {
		t.Error("input nodes were mutated")
	}
	out[0].Label = "changed"
	if nodes[0].Label == "changed" {
		t.Error("output aliases the input slice")
	}
}

func TestOrganize_Deterministic(t *testing.T) {
	nodes, edges := rootWithChildren(4)
	edges = append(edges, edge("3", "6"), edge("3", "7"))
	nodes = append(nodes, node("6", 0, 0), node("7", 0, 0))

	first := Organize(nodes, edges, "1")
	for range 10 {
		if got := Organize(nodes, edges, "1"); !reflect.DeepEqual(got, first) {
			t.Fatal("Organize is not deterministic")
		}
	}
}

func TestOrganize_EdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		nodes []mindmap.Node
		edges []mindmap.Edge
		root  string
	}{
		{"Empty", []mindmap.Node{}, nil, "1"},
		{"RootAbsent", []mindmap.Node{node("2", 1, 2), node("3", 3, 4)}, []mindmap.Edge{edge("2", "3")}, "1"},
		{"RootOnly", []mindmap.Node{node("1", 250, 100)}, nil, "1"},
		{"DanglingEdge", []mindmap.Node{node("1", 250, 100)}, []mindmap.Edge{edge("1", "9")}, "1"},
		{"EdgeIntoRoot", []mindmap.Node{node("1", 250, 100)}, []mindmap.Edge{edge("1", "1")}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Organize(tt.nodes, tt.edges, tt.root)
			if len(out) != len(tt.nodes) {
				t.Fatalf("len = %d, want %d", len(out), len(tt.nodes))
			}
			if !reflect.DeepEqual(out, tt.nodes) {
				t.Errorf("Organize() = %+v, want unchanged %+v", out, tt.nodes)
			}
		})
	}
}

func TestOrganize_DanglingEdgeStillCountsAsSibling(t *testing.T) {
	nodes := []mindmap.Node{node("1", 250, 100), node("3", 0, 0)}
	edges := []mindmap.Edge{edge("1", "9"), edge("1", "3")}

	out := Organize(nodes, edges, "1")
	// "3" is the second of two edge targets, so θ = 0.
	if p := out[1].Position; !near(p.X, 450) || !near(p.Y, 200) {
		t.Errorf("node 3 = %+v, want (450, 200)", p)
	}
}

func TestOrganize_DuplicateRootUsesLastPosition(t *testing.T) {
	nodes := []mindmap.Node{node("1", 0, 0), node("2", 5, 5), node("1", 250, 100)}
	edges := []mindmap.Edge{edge("1", "2")}

	out := Organize(nodes, edges, "1")
	if p := out[1].Position; !near(p.X, 250) || !near(p.Y, 0) {
		t.Errorf("node 2 = %+v, want (250, 0) below the later root", p)
	}
	if out[0].Position != nodes[0].Position || out[2].Position != nodes[2].Position {
		t.Errorf("roots moved: %+v %+v", out[0].Position, out[2].Position)
	}
}

func TestOrganize_CycleTerminates(t *testing.T) {
	nodes := []mindmap.Node{node("1", 0, 0), node("2", 0, 0), node("3", 0, 0)}
	edges := []mindmap.Edge{edge("1", "2"), edge("2", "3"), edge("3", "2"), edge("3", "1")}

	out := Organize(nodes, edges, "1")
	if out[0].Position != (mindmap.Position{}) {
		t.Errorf("root moved to %+v", out[0].Position)
	}
	if p := out[1].Position; !near(p.X, 0) || !near(p.Y, -100) {
		t.Errorf("node 2 = %+v, want (0, -100)", p)
	}
}

func TestOrganize_SharedChildFirstPlacementWins(t *testing.T) {
	nodes := []mindmap.Node{node("1", 0, 0), node("2", 0, 0), node("3", 0, 0), node("4", 0, 0)}
	edges := []mindmap.Edge{edge("1", "2"), edge("1", "3"), edge("2", "4"), edge("3", "4")}

	got := Compute(nodes, edges, "1")
	want := ChildPosition(got["2"], 0, 1, DefaultOptions())
	if got["4"] != want {
		t.Errorf("shared child = %+v, want %+v (placed under first parent)", got["4"], want)
	}
}

func TestOrganize_Spacing(t *testing.T) {
	nodes, edges := rootWithChildren(1)
	out := Organize(nodes, edges, "1", WithHorizontalSpacing(50), WithVerticalSpacing(10))
	if p := out[1].Position; !near(p.X, 250) || !near(p.Y, 60) {
		t.Errorf("child = %+v, want (250, 60)", p)
	}
}

func TestCompute_ExcludesRootAndUnreachable(t *testing.T) {
	nodes := []mindmap.Node{node("1", 0, 0), node("2", 0, 0), node("3", 0, 0)}
	got := Compute(nodes, []mindmap.Edge{edge("1", "2")}, "1")
	if len(got) != 1 {
		t.Fatalf("Compute() = %v, want only node 2", got)
	}
	if _, ok := got["2"]; !ok {
		t.Error("node 2 missing from accumulator")
	}
	if len(Compute(nodes, nil, "missing")) != 0 {
		t.Error("absent root should produce an empty accumulator")
	}
}

func TestRunStrict(t *testing.T) {
	nodes := []mindmap.Node{node("1", 0, 0), node("2", 0, 0)}

	if _, err := OrganizeStrict(nodes, []mindmap.Edge{edge("1", "2")}, "1"); err != nil {
		t.Fatalf("OrganizeStrict(tree) = %v", err)
	}
	_, err := OrganizeStrict(nodes, []mindmap.Edge{edge("1", "2"), edge("2", "1")}, "1")
	if !errors.Is(err, ErrCycle) {
		t.Errorf("OrganizeStrict(cycle) = %v, want ErrCycle", err)
	}
	if _, err := Run(nodes, []mindmap.Edge{edge("1", "2"), edge("2", "1")}, "1"); err != nil {
		t.Errorf("Run without WithStrict = %v, want nil", err)
	}
}
