package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogsite/cmd/blogsite/commands"
	"git.home.luguber.info/inful/blogsite/internal/manifest"
	"git.home.luguber.info/inful/blogsite/internal/plantuml"
)

type streams struct {
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newGlobal(stdin string) (*commands.Global, streams) {
	s := streams{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	return &commands.Global{Stdin: strings.NewReader(stdin), Stdout: s.stdout, Stderr: s.stderr}, s
}

func TestDiagramEncodeDecode(t *testing.T) {
	g, s := newGlobal("Bob -> Alice : hello\n")
	require.Equal(t, 0, run([]string{"diagram", "encode"}, g))
	encoded := strings.TrimSpace(s.stdout.String())
	assert.Regexp(t, `^[0-9A-Za-z_-]+$`, encoded)

	g, s = newGlobal(encoded)
	require.Equal(t, 0, run([]string{"diagram", "decode"}, g))
	assert.Equal(t, "Bob -> Alice : hello\n", s.stdout.String())
}

func TestDiagramDecode_Invalid(t *testing.T) {
	g, _ := newGlobal("not*valid")
	assert.Equal(t, 2, run([]string{"diagram", "decode"}, g))
}

func TestDiagramURL(t *testing.T) {
	g, s := newGlobal("@startuml\nA -> B\n@enduml\n")
	require.Equal(t, 0, run([]string{"diagram", "url", "--server", "https://example.com/svg/"}, g))

	out := strings.TrimSpace(s.stdout.String())
	require.True(t, strings.HasPrefix(out, "https://example.com/svg/"), out)
	decoded, err := plantuml.Decode(strings.TrimPrefix(out, "https://example.com/svg/"))
	require.NoError(t, err)
	assert.Equal(t, "@startuml\nskinparam backgroundColor transparent\nA -> B\n@enduml", decoded)
}

func TestDiagramURL_MissingStartMarker(t *testing.T) {
	g, _ := newGlobal("A -> B\n")
	assert.Equal(t, 2, run([]string{"diagram", "url"}, g))

	g, s := newGlobal("A -> B\n")
	require.Equal(t, 0, run([]string{"diagram", "url", "--no-style"}, g))
	assert.True(t, strings.HasPrefix(s.stdout.String(), "https://www.plantuml.com/plantuml/svg/"))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogsite.yaml")

	g, _ := newGlobal("")
	require.Equal(t, 0, run([]string{"--config", path, "init"}, g))
	assert.FileExists(t, path)

	g, _ = newGlobal("")
	assert.Equal(t, 1, run([]string{"--config", path, "init"}, g), "existing file without --force")

	g, _ = newGlobal("")
	assert.Equal(t, 0, run([]string{"--config", path, "init", "--force"}, g))
}

func TestRender_WithoutConfig(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.md")
	require.NoError(t, os.WriteFile(page, []byte("---\ntitle: x\n---\n# Hi\n\n```plantuml\n@startuml\nA -> B\n@enduml\n```\n"), 0o644))

	g, s := newGlobal("")
	require.Equal(t, 0, run([]string{"--config", filepath.Join(dir, "missing.yaml"), "render", page}, g))
	out := s.stdout.String()
	assert.Contains(t, out, `<h1 id="hi">Hi</h1>`)
	assert.Contains(t, out, `<p><img src="https://www.plantuml.com/plantuml/svg/`)
	assert.NotContains(t, out, "title: x")
}

func writeSite(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "notes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.md"), []byte("# Home\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "notes", "first.md"), []byte("# First\n"), 0o644))

	cfgPath := filepath.Join(dir, "blogsite.yaml")
	cfg := "site:\n  title: CLI Blog\n  clean_urls: true\nsidebar:\n  - folder: notes\ncontent:\n  root: " +
		docs + "\noutput:\n  directory: " + filepath.Join(dir, "dist") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return dir, cfgPath
}

func TestBuild(t *testing.T) {
	dir, cfgPath := writeSite(t)
	promFile := filepath.Join(dir, "blogsite.prom")

	g, _ := newGlobal("")
	require.Equal(t, 0, run([]string{"-c", cfgPath, "build", "--metrics-textfile", promFile}, g))

	data, err := os.ReadFile(filepath.Join(dir, "dist", "manifest.json"))
	require.NoError(t, err)
	m, err := manifest.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "CLI Blog", m.Site.Title)
	assert.Len(t, m.Pages, 2)
	assert.FileExists(t, filepath.Join(dir, "dist", "notes", "first.html"))

	metrics, err := os.ReadFile(promFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "blogsite_pages_rendered_total 2")
	assert.Contains(t, string(metrics), `blogsite_build_outcomes_total{outcome="success"} 1`)
}

func TestBuild_OutputFlag(t *testing.T) {
	dir, cfgPath := writeSite(t)
	out := filepath.Join(dir, "elsewhere")

	g, _ := newGlobal("")
	require.Equal(t, 0, run([]string{"-c", cfgPath, "build", "-o", out}, g))
	assert.FileExists(t, filepath.Join(out, "manifest.json"))
}

func TestBuild_MissingConfig(t *testing.T) {
	g, _ := newGlobal("")
	assert.Equal(t, 7, run([]string{"-c", filepath.Join(t.TempDir(), "nope.yaml"), "build"}, g))
}

func TestSidebar_JSON(t *testing.T) {
	_, cfgPath := writeSite(t)

	g, s := newGlobal("")
	require.Equal(t, 0, run([]string{"-c", cfgPath, "sidebar", "--format", "json"}, g))

	var groups map[string][]struct {
		Text  string `json:"text"`
		Items []struct {
			Text string `json:"text"`
			Link string `json:"link"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(s.stdout.Bytes(), &groups))
	require.Len(t, groups["/notes/"], 1)
	assert.Equal(t, "Notes", groups["/notes/"][0].Text)
	assert.Equal(t, "/notes/first", groups["/notes/"][0].Items[0].Link)
}

func TestSidebar_YAML(t *testing.T) {
	_, cfgPath := writeSite(t)

	g, s := newGlobal("")
	require.Equal(t, 0, run([]string{"-c", cfgPath, "sidebar"}, g))
	assert.Contains(t, s.stdout.String(), "/notes/:")
	assert.Contains(t, s.stdout.String(), "link: /notes/first")
}

func TestJSONLogging(t *testing.T) {
	_, cfgPath := writeSite(t)
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, append(data, []byte("logging:\n  format: json\n")...), 0o644))

	g, s := newGlobal("")
	require.Equal(t, 0, run([]string{"-c", cfgPath, "build"}, g))
	assert.Contains(t, s.stderr.String(), `"msg":"Build complete"`)
	assert.Contains(t, s.stderr.String(), `"build.id":`)
}
