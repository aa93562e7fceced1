package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the topic ID and description to each label.
	Detailed bool

	// Free lets neato place topics itself instead of pinning them to their
	// canvas positions.
	Free bool
}

// ToDOT converts a mind map to Graphviz DOT source for the neato engine.
//
// Edges that reference unknown topics are dropped so that Graphviz does not
// invent unpositioned nodes for them. The root topic (kind "input") is drawn
// with a bold outline.
func ToDOT(m mindmap.MindMap, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  label=%q;\n", m.Title)
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	if opts.Free {
		buf.WriteString("  overlap=false;\n")
	}
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.7, color=\"#64748b\"];\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		if known[n.ID] {
			continue
		}
		known[n.ID] = true
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed), !opts.Free)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range m.Edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [id=%q];\n", e.Source, e.Target, e.ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n mindmap.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed {
		return label
	}
	parts := []string{label, "id: " + n.ID}
	if n.Description != "" {
		parts = append(parts, n.Description)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n mindmap.Node, label string, pinned bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if pinned {
		attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.Position.X, -n.Position.Y))
	}
	if n.Kind == mindmap.KindInput {
		attrs = append(attrs, "penwidth=2", "fillcolor=\"#e0e7ff\"")
	}
	return attrs
}
