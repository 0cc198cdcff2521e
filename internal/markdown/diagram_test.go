package markdown

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/plantuml"
)

const testServer = "https://www.plantuml.com/plantuml/svg"

var imgPattern = regexp.MustCompile(`^<p><img src="https://www\.plantuml\.com/plantuml/svg/([0-9A-Za-z_-]+)" alt="PlantUML"></p>\n$`)

type countingObserver map[string]int

func (c countingObserver) IncDiagram(outcome string) { c[outcome]++ }

func testOptions(policy config.MissingPolicy) DiagramOptions {
	return DiagramOptions{
		Marker:         "plantuml",
		Server:         testServer,
		StyleHeader:    config.DefaultStyleHeader,
		OnMissingStart: policy,
	}
}

func convert(t *testing.T, md goldmark.Markdown, src string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte(src), &buf))
	return buf.String()
}

func decodeImg(t *testing.T, out string) string {
	t.Helper()
	m := imgPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, "unexpected output %q", out)
	decoded, err := plantuml.Decode(m[1])
	require.NoError(t, err)
	return decoded
}

func TestDiagramFence_DelegatesNonDiagramFences(t *testing.T) {
	docs := []string{
		"```go\nfmt.Println(\"hi\")\n```\n",
		"```\nplain <b>block</b>\n```\n",
		"```plantuml-ish\n@startuml\nA -> B\n@enduml\n```\n",
		"~~~python {linenos=true}\nprint(1)\n~~~\n",
		"    indented code is not a fence\n",
	}

	plain := goldmark.New()
	hooked := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: testOptions(config.MissingAsCode)}))
	for _, doc := range docs {
		assert.Equal(t, convert(t, plain, doc), convert(t, hooked, doc), doc)
	}
}

func TestDiagramFence_DelegatesToHighlighting(t *testing.T) {
	hl := []highlighting.Option{highlighting.WithStyle("github")}
	doc := "```go\npackage main\n\nfunc main() {}\n```\n"

	highlighted := goldmark.New(goldmark.WithExtensions(highlighting.NewHighlighting(hl...)))
	hooked := goldmark.New(goldmark.WithExtensions(&DiagramExtension{
		Options:  testOptions(config.MissingAsCode),
		Fallback: highlighting.NewHTMLRenderer(hl...),
	}))

	want := convert(t, highlighted, doc)
	assert.Equal(t, want, convert(t, hooked, doc))
	assert.NotEqual(t, convert(t, goldmark.New(), doc), want, "highlighting should change the output")
}

func TestDiagramFence_RendersImage(t *testing.T) {
	obs := countingObserver{}
	opts := testOptions(config.MissingAsCode)
	opts.Observer = obs
	md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: opts}))

	out := convert(t, md, "```plantuml\n@startuml\nA -> B\n@enduml\n```\n")

	assert.Equal(t, "@startuml\nskinparam backgroundColor transparent\nA -> B\n@enduml", decodeImg(t, out))
	assert.Equal(t, 1, obs[DiagramRendered])
	assert.Equal(t, 1, strings.Count(out, "\n"), "fragment must be a single line")
}

func TestDiagramFence_ImageHasAltText(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: testOptions(config.MissingAsCode)}))

	out := convert(t, md, "```plantuml\n@startuml\nA -> B\n@enduml\n```\n")
	assert.True(t, strings.HasPrefix(out, `<p><img src="`), out)
	assert.Contains(t, out, ` alt="PlantUML"></p>`)
}

func TestDiagramFence_TrimsContent(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: testOptions(config.MissingAsCode)}))

	out := convert(t, md, "```plantuml\n\n\n@startuml\nA -> B\n@enduml\n\n```\n")
	assert.Equal(t, "@startuml\nskinparam backgroundColor transparent\nA -> B\n@enduml", decodeImg(t, out))
}

func TestDiagramFence_InfoStringTrimmed(t *testing.T) {
	source := []byte("  plantuml  \n@startuml\nA -> B\n@enduml\n")
	info := ast.NewTextSegment(text.NewSegment(0, len("  plantuml  ")))
	node := ast.NewFencedCodeBlock(info)
	start := len("  plantuml  \n")
	for _, line := range []string{"@startuml\n", "A -> B\n", "@enduml\n"} {
		node.Lines().Append(text.NewSegment(start, start+len(line)))
		start += len(line)
	}

	fallbackCalled := false
	fallback := func(_ util.BufWriter, _ []byte, _ ast.Node, _ bool) (ast.WalkStatus, error) {
		fallbackCalled = true
		return ast.WalkContinue, nil
	}
	fn, ok := CaptureFenceRenderer(NewDiagramFenceRenderer(fallback, testOptions(config.MissingAsCode)))
	require.True(t, ok)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	_, err := fn(w, source, node, true)
	require.NoError(t, err)
	_, err = fn(w, source, node, false)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	assert.False(t, fallbackCalled)
	assert.Equal(t, "@startuml\nskinparam backgroundColor transparent\nA -> B\n@enduml", decodeImg(t, buf.String()))
}

func TestDiagramFence_InfoStringWithExtraWordsIsNotDiagram(t *testing.T) {
	md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: testOptions(config.MissingAsCode)}))
	doc := "```plantuml title\n@startuml\nA -> B\n@enduml\n```\n"
	assert.Equal(t, convert(t, goldmark.New(), doc), convert(t, md, doc))
}

// Regression baseline for fences lacking @startuml under each policy.
func TestDiagramFence_MissingStartMarker(t *testing.T) {
	doc := "```plantuml\nA -> B\n```\n"

	t.Run("code", func(t *testing.T) {
		obs := countingObserver{}
		opts := testOptions(config.MissingAsCode)
		opts.Observer = obs
		md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: opts}))

		assert.Equal(t, "<pre><code class=\"language-plantuml\">A -&gt; B\n</code></pre>\n", convert(t, md, doc))
		assert.Equal(t, 1, obs[DiagramSkipped])
		assert.Zero(t, obs[DiagramRendered])
	})

	t.Run("raw", func(t *testing.T) {
		obs := countingObserver{}
		opts := testOptions(config.MissingRaw)
		opts.Observer = obs
		md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: opts}))

		assert.Equal(t, "A -> B", decodeImg(t, convert(t, md, doc)))
		assert.Equal(t, 1, obs[DiagramRaw])
	})

	t.Run("error", func(t *testing.T) {
		md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: testOptions(config.MissingError)}))
		var buf bytes.Buffer
		err := md.Convert([]byte("intro\n\n"+doc), &buf)
		require.Error(t, err)
		be, ok := berrors.As(err)
		require.True(t, ok)
		assert.Equal(t, berrors.CategoryValidation, be.Category)
		assert.Equal(t, 4, be.Context["line"])
	})
}

func TestDiagramFence_CustomServerAndHeader(t *testing.T) {
	opts := DiagramOptions{Marker: "uml", Server: "https://kroki.example/plantuml/png/", StyleHeader: "\n!theme plain", Alt: `Flow "A" & B`}
	md := goldmark.New(goldmark.WithExtensions(&DiagramExtension{Options: opts}))

	out := convert(t, md, "```uml\n@startuml\nA -> B\n@enduml\n```\n")
	require.True(t, strings.HasPrefix(out, `<p><img src="https://kroki.example/plantuml/png/`), out)

	require.True(t, strings.HasSuffix(out, `" alt="Flow &quot;A&quot; &amp; B"></p>`+"\n"), out)

	enc := strings.TrimSuffix(strings.TrimPrefix(out, `<p><img src="https://kroki.example/plantuml/png/`), `" alt="Flow &quot;A&quot; &amp; B"></p>`+"\n")
	decoded, err := plantuml.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "@startuml\n!theme plain\nA -> B\n@enduml", decoded)
}

func TestCaptureFenceRenderer_NoFenceHandler(t *testing.T) {
	_, ok := CaptureFenceRenderer(nopRenderer{})
	assert.False(t, ok)
}

type nopRenderer struct{}

func (nopRenderer) RegisterFuncs(renderer.NodeRendererFuncRegisterer) {}
