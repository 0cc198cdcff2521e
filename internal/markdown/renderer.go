package markdown

import (
	"bytes"
	"fmt"
	"log/slog"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/blogsite/internal/config"
)

// Result is the outcome of rendering one page body.
type Result struct {
	HTML     []byte
	Title    string // first level-1 heading, if any
	Diagrams int    // diagram fences encountered
	Links    []Link
}

// Renderer renders page bodies with a goldmark instance built once from config.
// A Renderer is not safe for concurrent use when an Observer counts per page.
type Renderer struct {
	md     goldmark.Markdown
	marker string
}

// Option customizes NewRenderer.
type Option func(*rendererOptions)

type rendererOptions struct {
	logger   *slog.Logger
	observer DiagramObserver
}

// WithLogger sets the logger used for diagram warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *rendererOptions) { o.logger = l }
}

// WithDiagramObserver registers an observer for diagram outcomes.
func WithDiagramObserver(obs DiagramObserver) Option {
	return func(o *rendererOptions) { o.observer = obs }
}

// NewRenderer builds the goldmark pipeline described by cfg.
func NewRenderer(cfg config.MarkdownConfig, opts ...Option) *Renderer {
	ro := rendererOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&ro)
	}

	exts := []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		extension.DefinitionList,
	}
	if cfg.Typographer {
		exts = append(exts, extension.Typographer)
	}

	htmlOpts := htmlOptions(cfg)
	hlHTMLOpts := make([]html.Option, 0, len(htmlOpts))
	rendererOpts := make([]renderer.Option, 0, len(htmlOpts))
	for _, o := range htmlOpts {
		hlHTMLOpts = append(hlHTMLOpts, o)
		rendererOpts = append(rendererOpts, o)
	}

	// The captured fallback never sees goldmark's renderer options, so it
	// gets the HTML settings directly.
	hlOpts := []highlighting.Option{
		highlighting.WithStyle(cfg.HighlightStyle),
		highlighting.WithFormatOptions(chromahtml.WithLineNumbers(cfg.LineNumbers)),
		highlighting.WithHTMLOptions(hlHTMLOpts...),
	}
	marker := ""
	if cfg.Diagrams.Enabled {
		do := DiagramOptionsFrom(cfg.Diagrams)
		do.Logger = ro.logger
		do.Observer = ro.observer
		marker = do.Marker
		exts = append(exts, &DiagramExtension{
			Options:  do,
			Fallback: highlighting.NewHTMLRenderer(hlOpts...),
		})
	} else {
		exts = append(exts, highlighting.NewHighlighting(hlOpts...))
	}

	mdOpts := []goldmark.Option{
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if len(rendererOpts) > 0 {
		mdOpts = append(mdOpts, goldmark.WithRendererOptions(rendererOpts...))
	}
	return &Renderer{md: goldmark.New(mdOpts...), marker: marker}
}

type htmlOption interface {
	renderer.Option
	html.Option
}

func htmlOptions(cfg config.MarkdownConfig) []htmlOption {
	var opts []htmlOption
	if cfg.UnsafeHTML {
		opts = append(opts, html.WithUnsafe())
	}
	if cfg.HardWraps {
		opts = append(opts, html.WithHardWraps())
	}
	return opts
}

// Markdown exposes the underlying goldmark instance.
func (r *Renderer) Markdown() goldmark.Markdown {
	return r.md
}

// Render converts a page body (frontmatter already removed) to HTML.
func (r *Renderer) Render(body []byte) (*Result, error) {
	ctx := parser.NewContext()
	root := r.md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	res := &Result{
		Title: firstHeading(root, body),
		Links: collectLinks(root, body, ctx),
	}
	if r.marker != "" {
		_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
			if fb, ok := n.(*gmast.FencedCodeBlock); ok && entering && isDiagramFence(fb, body, r.marker) {
				res.Diagrams++
			}
			return gmast.WalkContinue, nil
		})
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, body, root); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	res.HTML = buf.Bytes()
	return res, nil
}
