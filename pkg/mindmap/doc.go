// Package mindmap defines the mind map data model and its wire formats.
//
// A mind map is a directed graph of topics: a collection of [Node] values
// (each with an identifier, a label and a 2D position) and a collection of
// [Edge] values connecting them. The model deliberately does not enforce
// tree shape or edge endpoint existence; collaborators such as freeform
// connections may produce multiple parents or cycles, and consumers like
// the layout engine are expected to tolerate them.
//
// # Lifecycle
//
// [New] creates a map holding only the root topic:
//
//	m := mindmap.New("Ideas")
//	// m.Nodes[0] == Node{ID: "1", Label: "Central Topic", Position: {250, 100}, Kind: "input"}
//
// Edits never mutate a map in place. Methods such as [MindMap.WithNode] and
// [MindMap.WithEdge] return a new value whose slices are fresh copies, so a
// previously taken snapshot is never affected by later edits.
//
// # Serialization
//
// Maps round-trip through JSON and YAML:
//
//	m, err := mindmap.ReadFile("ideas.yaml")
//	err = mindmap.WriteFile(m, "ideas.json")
//
// The format is chosen from the file extension; see [FormatFromPath].
// Struct tags also carry BSON names for the MongoDB store.
//
// # Concurrency
//
// Values are plain data. A MindMap must not be shared across goroutines
// while one of them is writing to it.
package mindmap
