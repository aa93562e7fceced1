// Package editor holds a live mind map and applies user gestures to it.
//
// A [Session] is the in-memory graph store behind the canvas: every gesture
// replaces the node or edge collection wholesale instead of editing
// elements in place, so snapshots handed out earlier never change.
// Sessions are not safe for concurrent use.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/layout"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// New topics are dropped at a random point inside this area.
const (
	SpawnWidth  = 500.0
	SpawnHeight = 300.0
)

var (
	// ErrNodeNotFound is returned when a gesture names a topic that does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrRootRemoval is returned when trying to remove the root topic.
	ErrRootRemoval = errors.New("cannot remove the root topic")
)

// Session is an editable mind map.
type Session struct {
	m          mindmap.MindMap
	root       string
	rng        *rand.Rand
	layoutOpts []layout.Option
	logger     *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRoot sets the topic that new topics attach to and layout starts from.
func WithRoot(id string) Option { return func(s *Session) { s.root = id } }

// WithRand sets the random source for spawn positions.
func WithRand(r *rand.Rand) Option { return func(s *Session) { s.rng = r } }

// WithLayoutOptions sets the options passed to the layout engine.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(s *Session) { s.layoutOpts = opts }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

// NewSession starts a session on a fresh map containing only the root.
func NewSession(title string, opts ...Option) *Session {
	return Open(mindmap.New(title), opts...)
}

// Open starts a session on a copy of m.
func Open(m mindmap.MindMap, opts ...Option) *Session {
	s := &Session{
		m:    m.Clone(),
		root: mindmap.DefaultRootID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Root returns the root topic ID.
func (s *Session) Root() string { return s.root }

// Snapshot returns a deep copy of the current map.
func (s *Session) Snapshot() mindmap.MindMap { return s.m.Clone() }

// AddTopic appends a child of the root labelled "Topic <id>" at a random
// position and connects it to the root. The root does not need to exist;
// the edge is added regardless, exactly as the canvas does.
func (s *Session) AddTopic() (mindmap.Node, mindmap.Edge) {
	return s.AddTopicLabeled("")
}

// AddTopicLabeled is like AddTopic but uses label when it is non-empty.
func (s *Session) AddTopicLabeled(label string) (mindmap.Node, mindmap.Edge) {
	id := s.m.NextNodeID()
	if label == "" {
		label = "Topic " + id
	}
	n := mindmap.Node{
		ID:    id,
		Label: label,
		Position: mindmap.Position{
			X: s.rng.Float64() * SpawnWidth,
			Y: s.rng.Float64() * SpawnHeight,
		},
	}
	e := mindmap.Edge{ID: mindmap.EdgeID(s.root, id), Source: s.root, Target: id}

	s.m = s.m.WithNode(n).WithEdge(e)
	s.edited("add_topic")
	s.logger.Debug("add topic", "id", id, "x", n.Position.X, "y", n.Position.Y)
	return n, e
}

// Connect adds an edge from source to target. Any shape is allowed,
// including cycles and second parents. It reports false if the pair is
// already connected, in which case nothing changes.
func (s *Session) Connect(source, target string) (mindmap.Edge, bool, error) {
	if _, ok := s.m.Node(source); !ok {
		return mindmap.Edge{}, false, fmt.Errorf("source %q: %w", source, ErrNodeNotFound)
	}
	if _, ok := s.m.Node(target); !ok {
		return mindmap.Edge{}, false, fmt.Errorf("target %q: %w", target, ErrNodeNotFound)
	}
	for _, e := range s.m.Edges {
		if e.Source == source && e.Target == target {
			return e, false, nil
		}
	}

	id := mindmap.EdgeID(source, target)
	for _, e := range s.m.Edges {
		if e.ID == id {
			id = fmt.Sprintf("%s-%d", id, len(s.m.Edges))
			break
		}
	}
	e := mindmap.Edge{ID: id, Source: source, Target: target}
	s.m = s.m.WithEdge(e)
	s.edited("connect")
	s.logger.Debug("connect", "source", source, "target", target)
	return e, true, nil
}

// Move drags a topic to p.
func (s *Session) Move(id string, p mindmap.Position) error {
	return s.update("move", id, func(n mindmap.Node) mindmap.Node {
		n.Position = p
		return n
	})
}

// Nudge moves a topic by (dx, dy).
func (s *Session) Nudge(id string, dx, dy float64) error {
	return s.update("move", id, func(n mindmap.Node) mindmap.Node {
		n.Position.X += dx
		n.Position.Y += dy
		return n
	})
}

// Rename sets the label of a topic.
func (s *Session) Rename(id, label string) error {
	return s.update("rename", id, func(n mindmap.Node) mindmap.Node {
		n.Label = label
		return n
	})
}

// Describe sets the free-text description of a topic.
func (s *Session) Describe(id, description string) error {
	return s.update("describe", id, func(n mindmap.Node) mindmap.Node {
		n.Description = description
		return n
	})
}

func (s *Session) update(gesture, id string, fn func(mindmap.Node) mindmap.Node) error {
	m, ok := s.m.WithNodeUpdated(id, fn)
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrNodeNotFound)
	}
	s.m = m
	s.edited(gesture)
	return nil
}

func (s *Session) edited(gesture string) {
	observability.Editor().OnEdit(context.Background(), gesture)
}

// Remove deletes a topic and every edge touching it.
func (s *Session) Remove(id string) error {
	if id == s.root {
		return ErrRootRemoval
	}
	m, ok := s.m.WithoutNode(id)
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrNodeNotFound)
	}
	s.m = m
	s.edited("remove")
	s.logger.Debug("remove topic", "id", id)
	return nil
}

// Organize runs the radial layout from the root and replaces the node
// collection with the result. It returns the number of topics placed.
// An error is only possible when the session was configured with
// [layout.WithStrict].
func (s *Session) Organize(ctx context.Context) (int, error) {
	hooks := observability.Editor()
	hooks.OnLayoutStart(ctx, s.m.ID, len(s.m.Nodes))
	start := time.Now()

	opts := layout.NewOptions(s.layoutOpts...)
	var err error
	if opts.Strict {
		err = layout.CheckTree(s.m.Edges, s.root)
	}
	placed := 0
	if err == nil {
		pos := layout.Compute(s.m.Nodes, s.m.Edges, s.root, layout.WithOptions(opts))
		placed = len(pos)
		s.m = s.m.WithNodes(pos.Apply(s.m.Nodes))
	}

	hooks.OnLayoutComplete(ctx, s.m.ID, placed, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("organize: %w", err)
	}
	s.logger.Debug("organize", "placed", placed, "nodes", len(s.m.Nodes))
	return placed, nil
}
