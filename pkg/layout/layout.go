package layout

import (
	"math"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// Default spacing between a parent and its children.
const (
	DefaultHorizontalSpacing = 200.0
	DefaultVerticalSpacing   = 100.0
)

// Option configures a layout run.
type Option func(*Options)

// Options holds the layout parameters. The zero value is not useful;
// start from [DefaultOptions].
type Options struct {
	HorizontalSpacing float64 // radius of the sibling fan
	VerticalSpacing   float64 // extra downward offset per level
	Strict            bool    // reject non-tree input in Run
}

// DefaultOptions returns the spacing used by the editor.
func DefaultOptions() Options {
	return Options{
		HorizontalSpacing: DefaultHorizontalSpacing,
		VerticalSpacing:   DefaultVerticalSpacing,
	}
}

func WithHorizontalSpacing(v float64) Option { return func(o *Options) { o.HorizontalSpacing = v } }
func WithVerticalSpacing(v float64) Option   { return func(o *Options) { o.VerticalSpacing = v } }
func WithStrict() Option                     { return func(o *Options) { o.Strict = true } }

// WithOptions replaces every parameter at once.
func WithOptions(opts Options) Option { return func(o *Options) { *o = opts } }

// NewOptions applies opts on top of [DefaultOptions].
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Positions maps node IDs to their newly computed positions.
type Positions map[string]mindmap.Position

// ChildPosition returns where the i-th of k children of a parent at p goes.
func ChildPosition(p mindmap.Position, i, k int, opts Options) mindmap.Position {
	theta := float64(i)/float64(k)*math.Pi - math.Pi/2
	return mindmap.Position{
		X: p.X + opts.HorizontalSpacing*math.Cos(theta),
		Y: p.Y + opts.HorizontalSpacing*math.Sin(theta) + opts.VerticalSpacing,
	}
}

// Compute returns the new position of every node reachable from root,
// excluding root itself. It returns an empty map if root is not present.
func Compute(nodes []mindmap.Node, edges []mindmap.Edge, root string, opts ...Option) Positions {
	o := NewOptions(opts...)
	acc := Positions{}

	byID := make(map[string]mindmap.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n // last duplicate wins
	}
	rootNode, ok := byID[root]
	if !ok {
		return acc
	}

	children := make(map[string][]string)
	for _, e := range edges {
		children[e.Source] = append(children[e.Source], e.Target)
	}

	visited := map[string]bool{root: true}

	var place func(id string, at mindmap.Position)
	place = func(id string, at mindmap.Position) {
		kids := children[id]
		for i, c := range kids {
			if visited[c] {
				continue
			}
			if _, ok := byID[c]; !ok {
				continue
			}
			visited[c] = true
			acc[c] = ChildPosition(at, i, len(kids), o)
			place(c, acc[c])
		}
	}
	place(root, rootNode.Position)

	return acc
}

// Apply returns a copy of nodes with positions from p substituted.
// Nodes absent from p keep their position.
func (p Positions) Apply(nodes []mindmap.Node) []mindmap.Node {
	out := make([]mindmap.Node, len(nodes))
	for i, n := range nodes {
		if pos, ok := p[n.ID]; ok {
			n.Position = pos
		}
		out[i] = n
	}
	return out
}

// Organize lays out the tree below root and returns the updated nodes in
// their original order. It never fails; see the package documentation for
// how non-tree input is handled.
func Organize(nodes []mindmap.Node, edges []mindmap.Edge, root string, opts ...Option) []mindmap.Node {
	return Compute(nodes, edges, root, opts...).Apply(nodes)
}

// OrganizeStrict is like [Organize] but first verifies with [CheckTree]
// that the edges reachable from root form a tree.
func OrganizeStrict(nodes []mindmap.Node, edges []mindmap.Edge, root string, opts ...Option) ([]mindmap.Node, error) {
	return Run(nodes, edges, root, append(opts, WithStrict())...)
}

// Run lays out the tree below root, honoring [WithStrict].
func Run(nodes []mindmap.Node, edges []mindmap.Edge, root string, opts ...Option) ([]mindmap.Node, error) {
	if NewOptions(opts...).Strict {
		if err := CheckTree(edges, root); err != nil {
			return nil, err
		}
	}
	return Organize(nodes, edges, root, opts...), nil
}
