package mindmap

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// =============================================================================
// Constants
// =============================================================================

// DefaultRootID is the identifier of the root topic created by [New].
// The editor and the API attach every new topic to this node.
const DefaultRootID = "1"

// DefaultRootLabel is the label of the root topic created by [New].
const DefaultRootLabel = "Central Topic"

// KindInput marks the root topic (a node that only has outgoing edges).
const KindInput = "input"

// DefaultRootPosition is where [New] places the root topic.
var DefaultRootPosition = Position{X: 250, Y: 100}

// Sentinel errors for model validation.
var (
	// ErrEmptyID is returned when a node or edge has an empty identifier.
	ErrEmptyID = errors.New("empty identifier")

	// ErrDuplicateID is returned when two nodes or two edges share an identifier.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrDanglingEdge is returned when an edge references a node that does not exist.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrInvalidPosition is returned for NaN or infinite coordinates.
	ErrInvalidPosition = errors.New("position must be finite")
)

// =============================================================================
// Types
// =============================================================================

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Position) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Position) DistanceTo(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Node is a topic on the canvas.
type Node struct {
	ID          string   `json:"id" yaml:"id" bson:"id"`
	Label       string   `json:"label" yaml:"label" bson:"label"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Position    Position `json:"position" yaml:"position" bson:"position"`
	Kind        string   `json:"kind,omitempty" yaml:"kind,omitempty" bson:"kind,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two topics.
type Edge struct {
	ID     string `json:"id" yaml:"id" bson:"id"`
	Source string `json:"source" yaml:"source" bson:"source"`
	Target string `json:"target" yaml:"target" bson:"target"`
}

// EdgeID returns the conventional identifier for an edge from source to target.
func EdgeID(source, target string) string {
	return "e" + source + "-" + target
}

// MindMap is a named collection of topics and connections.
type MindMap struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty" bson:"_id,omitempty"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty" bson:"title,omitempty"`
	Nodes     []Node    `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges     []Edge    `json:"edges" yaml:"edges" bson:"edges"`
	CreatedAt time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty" bson:"updated_at"`
}

// New returns a map containing only the root topic.
func New(title string) MindMap {
	return MindMap{
		Title: title,
		Nodes: []Node{{
			ID:       DefaultRootID,
			Label:    DefaultRootLabel,
			Position: DefaultRootPosition,
			Kind:     KindInput,
		}},
		Edges: []Edge{},
	}
}

// =============================================================================
// Queries
// =============================================================================

// NodeCount returns the number of topics.
func (m MindMap) NodeCount() int { return len(m.Nodes) }

// EdgeCount returns the number of connections.
func (m MindMap) EdgeCount() int { return len(m.Edges) }

// Node returns the topic with the given ID.
func (m MindMap) Node(id string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasEdge reports whether a connection from source to target exists.
func (m MindMap) HasEdge(source, target string) bool {
	for _, e := range m.Edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// Children returns the direct children of id in edge insertion order.
func (m MindMap) Children(id string) []string {
	var out []string
	for _, e := range m.Edges {
		if e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}

// NextNodeID returns the identifier the next appended topic receives:
// the node count plus one, advanced past any identifier already in use.
func (m MindMap) NextNodeID() string {
	used := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		used[n.ID] = true
	}
	next := len(m.Nodes) + 1
	for used[strconv.Itoa(next)] {
		next++
	}
	return strconv.Itoa(next)
}

// =============================================================================
// Edits (copy-on-write)
// =============================================================================

// Clone returns a deep copy of m.
func (m MindMap) Clone() MindMap {
	out := m
	out.Nodes = append([]Node(nil), m.Nodes...)
	out.Edges = append([]Edge(nil), m.Edges...)
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

// WithNodes returns a copy of m whose node collection is replaced by nodes.
func (m MindMap) WithNodes(nodes []Node) MindMap {
	out := m.Clone()
	out.Nodes = append(make([]Node, 0, len(nodes)), nodes...)
	return out
}

// WithNode returns a copy of m with n appended.
func (m MindMap) WithNode(n Node) MindMap {
	out := m.Clone()
	out.Nodes = append(out.Nodes, n)
	return out
}

// WithEdge returns a copy of m with e appended.
func (m MindMap) WithEdge(e Edge) MindMap {
	out := m.Clone()
	out.Edges = append(out.Edges, e)
	return out
}

// WithNodeUpdated returns a copy of m where the node with the given id has
// been replaced by the result of fn. The second result is false if no node
// has that id.
func (m MindMap) WithNodeUpdated(id string, fn func(Node) Node) (MindMap, bool) {
	out := m.Clone()
	for i, n := range out.Nodes {
		if n.ID == id {
			out.Nodes[i] = fn(n)
			return out, true
		}
	}
	return m, false
}

// WithoutNode returns a copy of m without the node id and without any edge
// touching it. The second result is false if no node has that id.
func (m MindMap) WithoutNode(id string) (MindMap, bool) {
	if _, ok := m.Node(id); !ok {
		return m, false
	}
	out := m.Clone()
	nodes := out.Nodes[:0]
	for _, n := range out.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	edges := out.Edges[:0]
	for _, e := range out.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	out.Nodes, out.Edges = nodes, edges
	return out, true
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks structural consistency: non-empty unique node and edge
// identifiers, finite positions and edges that reference existing nodes.
//
// The in-memory editor never calls Validate; it is applied to maps entering
// the system from files or the API.
func (m MindMap) Validate() error {
	ids := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node: %w", ErrEmptyID)
		}
		if ids[n.ID] {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
		}
		if !n.Position.IsFinite() {
			return fmt.Errorf("node %s: %w", n.ID, ErrInvalidPosition)
		}
		ids[n.ID] = true
	}

	edgeIDs := make(map[string]bool, len(m.Edges))
	for _, e := range m.Edges {
		if e.ID == "" {
			return fmt.Errorf("edge %s→%s: %w", e.Source, e.Target, ErrEmptyID)
		}
		if edgeIDs[e.ID] {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
		}
		if !ids[e.Source] {
			return fmt.Errorf("edge %s source %q: %w", e.ID, e.Source, ErrDanglingEdge)
		}
		if !ids[e.Target] {
			return fmt.Errorf("edge %s target %q: %w", e.ID, e.Target, ErrDanglingEdge)
		}
		edgeIDs[e.ID] = true
	}
	return nil
}
