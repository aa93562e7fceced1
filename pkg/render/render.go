package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mindmap/pkg/cache"
	"github.com/matzehuels/mindmap/pkg/mindmap"
	"github.com/matzehuels/mindmap/pkg/observability"
)

// Format is an output format.
type Format string

// Supported output formats.
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatDOT Format = "dot"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatDOT}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (use svg, png or dot)", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz"
	}
}

// Render draws m in the given format.
func Render(ctx context.Context, m mindmap.MindMap, format Format, opts Options) ([]byte, error) {
	start := time.Now()
	data, err := render(ctx, ToDOT(m, opts), format)
	observability.Editor().OnRenderComplete(ctx, string(format), time.Since(start), err)
	return data, err
}

func render(ctx context.Context, dot string, format Format) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// RenderSVG renders DOT source to SVG with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := renderGraphviz(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders DOT source to PNG with the neato engine.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderGraphviz(ctx, dot, graphviz.PNG)
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel-sized one so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// =============================================================================
// Cached rendering
// =============================================================================

// Renderer renders through a cache keyed by map content and options.
type Renderer struct {
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewRenderer returns a Renderer backed by c. A nil cache disables caching
// and a nil keyer uses the default keyer.
func NewRenderer(c cache.Cache, keyer cache.Keyer) *Renderer {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Renderer{cache: c, keyer: keyer, ttl: cache.TTLArtifact}
}

// Render returns the artifact for m, reporting whether it came from cache.
// Cache failures are not fatal; the artifact is rendered instead.
func (r *Renderer) Render(ctx context.Context, m mindmap.MindMap, format Format, opts Options) ([]byte, bool, error) {
	hash, err := Fingerprint(m)
	if err != nil {
		return nil, false, err
	}
	key := r.keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{Format: string(format), Detailed: opts.Detailed, Free: opts.Free})

	if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	data, err := Render(ctx, m, format, opts)
	if err != nil {
		return nil, false, err
	}
	_ = r.cache.Set(ctx, key, data, r.ttl)
	return data, false, nil
}

// Fingerprint hashes the parts of m that affect its drawing. Identity and
// timestamps are excluded, so two copies of the same map share artifacts.
func Fingerprint(m mindmap.MindMap) (string, error) {
	return cache.HashJSON(struct {
		Title string
		Nodes []mindmap.Node
		Edges []mindmap.Edge
	}{m.Title, m.Nodes, m.Edges})
}
