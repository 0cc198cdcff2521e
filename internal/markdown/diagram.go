package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/logfields"
	"git.home.luguber.info/inful/blogsite/internal/plantuml"
)

// Diagram outcomes reported to a DiagramObserver.
const (
	DiagramRendered = "rendered"
	DiagramRaw      = "raw"
	DiagramSkipped  = "skipped"
)

// DiagramObserver is notified once per diagram fence the hook handles.
type DiagramObserver interface {
	IncDiagram(outcome string)
}

// DiagramOptions configures the diagram fence renderer.
type DiagramOptions struct {
	Marker         string
	Server         string
	StyleHeader    string
	Alt            string // defaults to config.DefaultDiagramAlt
	OnMissingStart config.MissingPolicy
	Logger         *slog.Logger
	Observer       DiagramObserver
}

// DiagramOptionsFrom converts the YAML diagram settings.
func DiagramOptionsFrom(c config.DiagramConfig) DiagramOptions {
	return DiagramOptions{
		Marker:         c.Marker,
		Server:         c.Server,
		StyleHeader:    c.StyleHeader,
		Alt:            c.Alt,
		OnMissingStart: c.OnMissingStart,
	}
}

type diagramFenceRenderer struct {
	opts     DiagramOptions
	fallback renderer.NodeRendererFunc
}

// NewDiagramFenceRenderer returns a node renderer for fenced code blocks.
// Blocks whose trimmed info string equals opts.Marker become an <img> pointing at
// the PlantUML server; every other block is passed to fallback untouched.
func NewDiagramFenceRenderer(fallback renderer.NodeRendererFunc, opts DiagramOptions) renderer.NodeRenderer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Alt == "" {
		opts.Alt = config.DefaultDiagramAlt
	}
	if opts.OnMissingStart == "" {
		opts.OnMissingStart = config.MissingAsCode
	}
	opts.Marker = strings.TrimSpace(opts.Marker)
	return &diagramFenceRenderer{opts: opts, fallback: fallback}
}

func (r *diagramFenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *diagramFenceRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n, ok := node.(*ast.FencedCodeBlock)
	if !ok || !isDiagramFence(n, source, r.opts.Marker) {
		return r.fallback(w, source, node, entering)
	}

	content := strings.TrimSpace(fenceContent(n, source))
	payload, err := plantuml.Inject(content, r.opts.StyleHeader)
	outcome := DiagramRendered
	if err != nil {
		switch r.opts.OnMissingStart {
		case config.MissingRaw:
			payload, outcome = content, DiagramRaw
		case config.MissingError:
			if !entering {
				return ast.WalkContinue, nil
			}
			return ast.WalkStop, berrors.DiagramMarkerMissing(plantuml.StartMarker).WithContext("line", fenceLine(n, source))
		default:
			if entering {
				r.opts.Logger.Warn("Diagram block has no start marker; rendering as code",
					logfields.Marker(plantuml.StartMarker), slog.Int("line", fenceLine(n, source)))
				r.observe(DiagramSkipped)
			}
			return r.fallback(w, source, node, entering)
		}
	}

	if !entering {
		return ast.WalkContinue, nil
	}

	encoded, err := plantuml.Encode(payload)
	if err != nil {
		return ast.WalkStop, berrors.InternalError("encode diagram", err)
	}
	src := util.EscapeHTML([]byte(plantuml.URL(r.opts.Server, encoded)))
	alt := util.EscapeHTML([]byte(r.opts.Alt))
	_, _ = fmt.Fprintf(w, "<p><img src=\"%s\" alt=\"%s\"></p>\n", src, alt)
	r.observe(outcome)
	return ast.WalkContinue, nil
}

func (r *diagramFenceRenderer) observe(outcome string) {
	if r.opts.Observer != nil {
		r.opts.Observer.IncDiagram(outcome)
	}
}

// isDiagramFence reports whether the block's trimmed info string is exactly marker.
func isDiagramFence(n *ast.FencedCodeBlock, source []byte, marker string) bool {
	if n.Info == nil || marker == "" {
		return false
	}
	return strings.TrimSpace(string(n.Info.Segment.Value(source))) == marker
}

func fenceContent(n *ast.FencedCodeBlock, source []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// fenceLine returns the 1-based source line of the block's first content line, or 0.
func fenceLine(n *ast.FencedCodeBlock, source []byte) int {
	if n.Lines().Len() == 0 {
		return 0
	}
	return bytes.Count(source[:n.Lines().At(0).Start], []byte("\n")) + 1
}

// fenceCapture records the fenced-code-block function a node renderer registers.
type fenceCapture struct {
	fn renderer.NodeRendererFunc
}

func (c *fenceCapture) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	if kind == ast.KindFencedCodeBlock {
		c.fn = fn
	}
}

// CaptureFenceRenderer returns the function nr registers for fenced code blocks.
// It reports false when nr does not handle fenced code blocks.
func CaptureFenceRenderer(nr renderer.NodeRenderer) (renderer.NodeRendererFunc, bool) {
	c := &fenceCapture{}
	nr.RegisterFuncs(c)
	return c.fn, c.fn != nil
}

// DiagramExtension installs the diagram fence renderer into a goldmark instance.
type DiagramExtension struct {
	Options DiagramOptions
	// Fallback handles non-diagram fences. Defaults to goldmark's HTML renderer.
	Fallback renderer.NodeRenderer
}

// Extend implements goldmark.Extender.
func (e *DiagramExtension) Extend(m goldmark.Markdown) {
	fallback := e.Fallback
	if fallback == nil {
		fallback = html.NewRenderer()
	}
	fn, ok := CaptureFenceRenderer(fallback)
	if !ok {
		fn, _ = CaptureFenceRenderer(html.NewRenderer())
	}
	// Goldmark's HTML renderer sits at 1000 and goldmark-highlighting at 200;
	// a smaller value wins.
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewDiagramFenceRenderer(fn, e.Options), 100),
	))
}
