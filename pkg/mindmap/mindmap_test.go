package mindmap

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	m := New("Ideas")

	if m.Title != "Ideas" {
		t.Errorf("Title = %q, want Ideas", m.Title)
	}
	if len(m.Nodes) != 1 {
		t.Fatalf("len(Nodes) = %d, want 1", len(m.Nodes))
	}
	root := m.Nodes[0]
	if root.ID != DefaultRootID || root.Label != DefaultRootLabel || root.Kind != KindInput {
		t.Errorf("root = %+v", root)
	}
	if root.Position != (Position{X: 250, Y: 100}) {
		t.Errorf("root position = %+v, want (250,100)", root.Position)
	}
	if m.Edges == nil || len(m.Edges) != 0 {
		t.Errorf("Edges = %v, want empty non-nil", m.Edges)
	}
}

func TestNextNodeID(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"Empty", nil, "1"},
		{"RootOnly", []string{"1"}, "2"},
		{"Sequential", []string{"1", "2", "3"}, "4"},
		{"SkipsCollision", []string{"1", "3"}, "4"},
		{"GapReused", []string{"1", "5"}, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m MindMap
			for _, id := range tt.ids {
				m.Nodes = append(m.Nodes, Node{ID: id})
			}
			if got := m.NextNodeID(); got != tt.want {
				t.Errorf("NextNodeID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCopyOnWrite(t *testing.T) {
	base := New("")
	withChild := base.WithNode(Node{ID: "2", Label: "Topic 2"}).WithEdge(Edge{ID: EdgeID("1", "2"), Source: "1", Target: "2"})

	if len(base.Nodes) != 1 || len(base.Edges) != 0 {
		t.Fatalf("base mutated: %d nodes, %d edges", len(base.Nodes), len(base.Edges))
	}
	if len(withChild.Nodes) != 2 || len(withChild.Edges) != 1 {
		t.Fatalf("withChild = %d nodes, %d edges", len(withChild.Nodes), len(withChild.Edges))
	}

	moved, ok := withChild.WithNodeUpdated("2", func(n Node) Node {
		n.Position = Position{X: 1, Y: 2}
		return n
	})
	if !ok {
		t.Fatal("WithNodeUpdated returned !ok for existing node")
	}
	if withChild.Nodes[1].Position != (Position{}) {
		t.Error("WithNodeUpdated mutated the receiver")
	}
	if moved.Nodes[1].Position != (Position{X: 1, Y: 2}) {
		t.Errorf("moved position = %+v", moved.Nodes[1].Position)
	}

	if _, ok := withChild.WithNodeUpdated("missing", func(n Node) Node { return n }); ok {
		t.Error("WithNodeUpdated returned ok for missing node")
	}
}

func TestWithoutNode(t *testing.T) {
	m := New("").
		WithNode(Node{ID: "2"}).
		WithNode(Node{ID: "3"}).
		WithEdge(Edge{ID: "e1-2", Source: "1", Target: "2"}).
		WithEdge(Edge{ID: "e2-3", Source: "2", Target: "3"}).
		WithEdge(Edge{ID: "e1-3", Source: "1", Target: "3"})

	out, ok := m.WithoutNode("2")
	if !ok {
		t.Fatal("WithoutNode returned !ok")
	}
	if out.NodeCount() != 2 || out.EdgeCount() != 1 {
		t.Errorf("got %d nodes, %d edges; want 2, 1", out.NodeCount(), out.EdgeCount())
	}
	if out.Edges[0].ID != "e1-3" {
		t.Errorf("remaining edge = %s, want e1-3", out.Edges[0].ID)
	}
	if m.NodeCount() != 3 || m.EdgeCount() != 3 {
		t.Error("WithoutNode mutated the receiver")
	}
}

func TestChildren(t *testing.T) {
	m := MindMap{Edges: []Edge{
		{ID: "a", Source: "1", Target: "3"},
		{ID: "b", Source: "2", Target: "4"},
		{ID: "c", Source: "1", Target: "2"},
	}}
	got := m.Children("1")
	if len(got) != 2 || got[0] != "3" || got[1] != "2" {
		t.Errorf("Children(1) = %v, want [3 2]", got)
	}
	if got := m.Children("4"); len(got) != 0 {
		t.Errorf("Children(4) = %v, want empty", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		m    MindMap
		want error
	}{
		{"Valid", New("").WithNode(Node{ID: "2"}).WithEdge(Edge{ID: "e1-2", Source: "1", Target: "2"}), nil},
		{"Empty", MindMap{}, nil},
		{"EmptyNodeID", MindMap{Nodes: []Node{{ID: ""}}}, ErrEmptyID},
		{"DuplicateNode", MindMap{Nodes: []Node{{ID: "1"}, {ID: "1"}}}, ErrDuplicateID},
		{"NaN", MindMap{Nodes: []Node{{ID: "1", Position: Position{X: math.NaN()}}}}, ErrInvalidPosition},
		{"EmptyEdgeID", New("").WithEdge(Edge{Source: "1", Target: "1"}), ErrEmptyID},
		{"DuplicateEdge", New("").WithEdge(Edge{ID: "x", Source: "1", Target: "1"}).WithEdge(Edge{ID: "x", Source: "1", Target: "1"}), ErrDuplicateID},
		{"DanglingTarget", New("").WithEdge(Edge{ID: "e1-9", Source: "1", Target: "9"}), ErrDanglingEdge},
		{"DanglingSource", New("").WithEdge(Edge{ID: "e9-1", Source: "9", Target: "1"}), ErrDanglingEdge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	m := New("Plans").
		WithNode(Node{ID: "2", Label: "Topic 2", Position: Position{X: 12.5, Y: -3}}).
		WithEdge(Edge{ID: "e1-2", Source: "1", Target: "2"})

	for _, name := range []string{"map.json", "map.yaml", "map.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteFile(m, path); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if got.Title != "Plans" || got.NodeCount() != 2 || got.EdgeCount() != 1 {
				t.Fatalf("got %+v", got)
			}
			if got.Nodes[1].Position != (Position{X: 12.5, Y: -3}) {
				t.Errorf("position = %+v", got.Nodes[1].Position)
			}
			if got.Nodes[0].Kind != KindInput {
				t.Errorf("root kind = %q, want input", got.Nodes[0].Kind)
			}
		})
	}
}

func TestReadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := MindMap{Nodes: []Node{{ID: "1"}, {ID: "1"}}}
	if err := WriteFile(bad, path); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("ReadFile() = %v, want ErrDuplicateID", err)
	}
}

func TestUnmarshalNormalizesNil(t *testing.T) {
	m, err := Unmarshal([]byte(`{"title":"x"}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if m.Nodes == nil || m.Edges == nil {
		t.Error("nil collections should be normalized to empty slices")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
