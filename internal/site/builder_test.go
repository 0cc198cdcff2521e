package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/manifest"
	"git.home.luguber.info/inful/blogsite/internal/metrics"
)

type fakeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	pages    int
	diagrams map[string]int
	outcomes map[string]int
	stages   []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{diagrams: map[string]int{}, outcomes: map[string]int{}}
}

func (f *fakeRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, stage)
}

func (f *fakeRecorder) IncBuildOutcome(o string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[o]++
}

func (f *fakeRecorder) IncPagesRendered(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages += n
}

func (f *fakeRecorder) IncDiagram(o string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diagrams[o]++
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newSite lays out a small blog and returns its configuration.
func newSite(t *testing.T, extra string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	content := filepath.Join(dir, "docs")

	writeFile(t, filepath.Join(content, "index.md"), "---\ntitle: Home\n---\n# Welcome\n")
	writeFile(t, filepath.Join(content, "notes", "index.md"), "# Notes\n")
	writeFile(t, filepath.Join(content, "notes", "first.md"), "---\norder: 1\ndate: 2024-03-01T00:00:00Z\ntags: [go]\n---\n# First note\n\nSee [about](/about).\n\n```plantuml\n@startuml\nA -> B\n@enduml\n```\n\n```go\nfmt.Println()\n```\n")
	writeFile(t, filepath.Join(content, "notes", "second.md"), "# Second note\n\n```plantuml\nA -> B\n```\n")
	writeFile(t, filepath.Join(content, "notes", "wip.md"), "---\ndraft: true\n---\n# Work in progress\n")

	yml := fmt.Sprintf(`site:
  title: Test Blog
  lang: en-US
  clean_urls: true
sidebar:
  - folder: notes
    title: Notes
search:
  locales:
    zh:
      button_text: 搜索
markdown:
  diagrams:
    enabled: true
content:
  root: %q
output:
  directory: %q
%s`, content, filepath.Join(dir, "dist"), extra)

	cfg, err := config.Parse([]byte(yml))
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := newSite(t, "")
	rec := newFakeRecorder()
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	res, err := NewBuilder(cfg, WithRecorder(rec), WithClock(func() time.Time { return fixed })).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 4, res.Pages)
	assert.Equal(t, 1, res.Drafts)

	out := cfg.Output.Directory
	frag, err := os.ReadFile(filepath.Join(out, "notes", "first.html"))
	require.NoError(t, err)
	assert.Contains(t, string(frag), `<p><img src="https://www.plantuml.com/plantuml/svg/`)
	assert.Contains(t, string(frag), `<pre`)
	assert.NoFileExists(t, filepath.Join(out, "notes", "wip.html"))

	data, err := os.ReadFile(filepath.Join(out, config.DefaultManifest))
	require.NoError(t, err)
	m, err := manifest.FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "Test Blog", m.Site.Title)
	assert.Equal(t, fixed, m.GeneratedAt)
	assert.NotEmpty(t, m.ContentHash)
	assert.Equal(t, manifest.DiagramStats{Rendered: 1, Skipped: 1}, m.Diagrams)

	routes := map[string]manifest.Page{}
	for _, p := range m.Pages {
		routes[p.Route] = p
	}
	require.Contains(t, routes, "/")
	assert.Equal(t, "Home", routes["/"].Title)
	first := routes["/notes/first"]
	assert.Equal(t, "First note", first.Title)
	assert.Equal(t, 1, first.Diagrams)
	assert.Equal(t, []string{"go"}, first.Tags)
	require.NotNil(t, first.Date)
	require.Len(t, first.Links, 1)
	assert.Equal(t, "/about", first.Links[0].Destination)

	require.Contains(t, m.Sidebar, "/notes/")
	group := m.Sidebar["/notes/"][0]
	assert.Equal(t, "Notes", group.Text)
	assert.Equal(t, "/notes/", group.Link)
	require.Len(t, group.Items, 2)
	assert.Equal(t, "/notes/first", group.Items[0].Link)

	assert.Equal(t, "搜索", m.Search.Locales["zh"].ButtonText)
	assert.Equal(t, "Search", m.Search.Locales["root"].ButtonText)

	assert.Equal(t, 4, rec.pages)
	assert.Equal(t, 1, rec.diagrams["rendered"])
	assert.Equal(t, 1, rec.diagrams["skipped"])
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeSuccess])
	assert.Equal(t, []string{StageDiscover, StageRender, StageSidebar, StageManifest}, rec.stages)
}

func TestBuild_ManifestUnchanged(t *testing.T) {
	cfg := newSite(t, "")
	first := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewBuilder(cfg, WithClock(func() time.Time { return first })).Build(context.Background())
	require.NoError(t, err)

	res, err := NewBuilder(cfg, WithClock(time.Now)).Build(context.Background())
	require.NoError(t, err)
	assert.True(t, res.ManifestUnchanged)
	assert.Equal(t, first, res.Manifest.GeneratedAt)
}

func TestBuild_Drafts(t *testing.T) {
	cfg := newSite(t, "")
	res, err := NewBuilder(cfg, WithDrafts(true)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pages)
	assert.Zero(t, res.Drafts)
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "notes", "wip.html"))
}

func TestBuild_Canceled(t *testing.T) {
	cfg := newSite(t, "")
	rec := newFakeRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewBuilder(cfg, WithRecorder(rec)).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, res.Status)
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeCanceled])
}

func TestBuild_MissingMarkerErrorPolicy(t *testing.T) {
	cfg := newSite(t, "")
	cfg.Markdown.Diagrams.OnMissingStart = config.MissingError

	res, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	be, ok := berrors.As(err)
	require.True(t, ok)
	assert.Equal(t, berrors.CategoryValidation, be.Category)
	assert.Equal(t, "notes/second.md", be.Context["page"])
}

func TestBuild_MissingContentRoot(t *testing.T) {
	cfg := newSite(t, "")
	cfg.Content.Root = filepath.Join(t.TempDir(), "nope")

	_, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	assert.True(t, berrors.IsCategory(err, berrors.CategoryFileSystem))
}

func TestBuild_CleanOutput(t *testing.T) {
	cfg := newSite(t, "  clean: true\n")
	stale := filepath.Join(cfg.Output.Directory, "stale.html")
	writeFile(t, stale, "old")

	_, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestBuild_RefusesToCleanContent(t *testing.T) {
	cfg := newSite(t, "  clean: true\n")
	parent := filepath.Dir(cfg.Content.Root)

	_, err := NewBuilder(cfg, WithOutputDir(parent)).Build(context.Background())
	require.Error(t, err)
	assert.True(t, berrors.IsCategory(err, berrors.CategoryValidation))
	assert.DirExists(t, cfg.Content.Root)
}

func TestBuild_LastUpdatedFallsBackToModTime(t *testing.T) {
	cfg := newSite(t, "")
	cfg.Site.LastUpdated = true
	mtime := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(cfg.Content.Root, "index.md"), mtime, mtime))

	res, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	for _, p := range res.Manifest.Pages {
		require.NotNil(t, p.LastUpdated, p.Source)
		if p.Source == "index.md" {
			assert.True(t, mtime.Equal(*p.LastUpdated))
		}
	}
}

func TestBuild_NonCleanURLs(t *testing.T) {
	cfg := newSite(t, "")
	cfg.Site.CleanURLs = false

	res, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	var routes []string
	for _, p := range res.Manifest.Pages {
		routes = append(routes, p.Route)
	}
	assert.Contains(t, routes, "/notes/first.html")
	for _, it := range res.Manifest.Sidebar["/notes/"][0].Items {
		assert.True(t, strings.HasSuffix(it.Link, ".html"), it.Link)
	}
}
