// Package layout computes radial tree positions for mind map topics.
//
// # Overview
//
// The engine is a pure function: it reads a node collection and an edge
// collection and returns a new node collection in which every topic
// reachable from the root has been repositioned around its parent. Topics
// that cannot be reached keep their previous position, and the input
// slices are never modified.
//
// # Placement
//
// A parent at (px, py) with k children places its i-th child (0-based, in
// edge insertion order) at
//
//	θ = (i/k)·π − π/2
//	x = px + H·cos θ
//	y = py + H·sin θ + V
//
// where H is the horizontal spacing (radius, default 200) and V is the
// vertical spacing (downward offset, default 100). Children are placed
// relative to the parent's newly computed position, so whole subtrees move
// with their parent. The root itself never moves.
//
// A single child therefore lands straight above the parent offset (θ = −π/2)
// and the fan of siblings spans half a circle. No collision avoidance is
// attempted.
//
// # Non-tree input
//
// Edges that point at unknown nodes are skipped. A topic is placed at most
// once per run: the first placement in depth-first, edge-order traversal
// wins and the topic is never descended into twice, so cycles and shared
// children terminate deterministically. If two topics share an ID, the
// later one provides the base position and both receive the computed one. [CheckTree] reports such shapes
// explicitly, and [OrganizeStrict] refuses to lay them out.
//
// # Usage
//
//	nodes := layout.Organize(m.Nodes, m.Edges, mindmap.DefaultRootID)
//
// Spacing is configured with [WithHorizontalSpacing] and
// [WithVerticalSpacing]. [Compute] exposes the raw accumulator of new
// positions for callers that only need the delta.
package layout
