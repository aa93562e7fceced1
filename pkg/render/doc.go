// Package render draws mind maps with Graphviz.
//
// # Overview
//
// A mind map already carries canvas coordinates, so the diagram is not laid
// out by Graphviz. [ToDOT] emits every topic with a pinned position and the
// neato engine only routes the edges. The canvas y axis points down while
// Graphviz points up, so y is negated on the way out.
//
//	dot := render.ToDOT(m, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	png, err := render.RenderPNG(ctx, dot)
//
// [Render] dispatches on a [Format] and reports timing through the
// observability hooks. [Renderer] adds a content-addressed cache in front.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering,
// so no Graphviz installation is required.
package render
