package site

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/frontmatter"
	"git.home.luguber.info/inful/blogsite/internal/gitinfo"
	"git.home.luguber.info/inful/blogsite/internal/i18n"
	"git.home.luguber.info/inful/blogsite/internal/logfields"
	"git.home.luguber.info/inful/blogsite/internal/manifest"
	"git.home.luguber.info/inful/blogsite/internal/markdown"
	"git.home.luguber.info/inful/blogsite/internal/metrics"
	"git.home.luguber.info/inful/blogsite/internal/observability"
	"git.home.luguber.info/inful/blogsite/internal/sidebar"
)

// Build stages reported to the metrics recorder.
const (
	StageDiscover = "discover"
	StageRender   = "render"
	StageSidebar  = "sidebar"
	StageManifest = "manifest"
)

// Result summarizes one build.
type Result struct {
	Status    Status
	Output    string
	Manifest  *manifest.Manifest
	Pages     int
	Drafts    int
	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
	// ManifestUnchanged is set when the manifest on disk already had the same
	// content hash and was left untouched.
	ManifestUnchanged bool
}

// Status is the outcome of a build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Builder renders a site from one loaded configuration.
type Builder struct {
	cfg           *config.Config
	logger        *slog.Logger
	recorder      metrics.Recorder
	outputDir     string
	includeDrafts bool
	now           func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLogger sets the logger (slog.Default when unset).
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithRecorder sets the metrics recorder (NoopRecorder when unset).
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// WithOutputDir overrides output.directory from the configuration.
func WithOutputDir(dir string) Option {
	return func(b *Builder) {
		if dir != "" {
			b.outputDir = dir
		}
	}
}

// WithDrafts includes pages marked draft: true.
func WithDrafts(include bool) Option {
	return func(b *Builder) { b.includeDrafts = include }
}

// WithClock replaces time.Now for the manifest timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		outputDir: cfg.Output.Directory,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OutputDir is the directory the build writes to.
func (b *Builder) OutputDir() string { return b.outputDir }

// Build runs the complete pipeline. The context is checked between pages.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{StartTime: start, Output: b.outputDir}
	ctx = observability.WithBuildID(ctx, start.Format("20060102-150405"))

	err := b.run(ctx, res)

	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(start)
	switch {
	case err == nil:
		res.Status = StatusSuccess
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		res.Status = StatusCanceled
	default:
		res.Status = StatusFailed
	}
	b.recorder.ObserveBuildDuration(res.Duration)
	b.recorder.IncBuildOutcome(outcomeFor(res.Status))

	if err != nil {
		b.logger.ErrorContext(ctx, "Build failed", logfields.Error(err), logfields.DurationMS(msSince(start)))
		return res, err
	}
	b.logger.InfoContext(ctx, "Build complete",
		logfields.Count(res.Pages),
		logfields.Path(b.outputDir),
		logfields.DurationMS(msSince(start)))
	return res, nil
}

func (b *Builder) run(ctx context.Context, res *Result) error {
	cfg := b.cfg
	contentRoot := cfg.Content.Root
	if info, err := os.Stat(contentRoot); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return berrors.WorkspaceError("open content root", err).WithContext("root", contentRoot)
	}
	contentFS := os.DirFS(contentRoot)

	if err := b.prepareOutput(); err != nil {
		return err
	}

	stageStart := time.Now()
	pages, err := Discover(contentFS, cfg.Content)
	if err != nil {
		return err
	}
	b.stageDone(ctx, StageDiscover, stageStart, len(pages))

	m := &manifest.Manifest{
		Site:   cfg.Site,
		Theme:  cfg.Theme,
		Nav:    cfg.Nav,
		Search: manifest.Search{Provider: cfg.Search.Provider},
		Pages:  make([]manifest.Page, 0, len(pages)),
	}

	renderer := markdown.NewRenderer(cfg.Markdown,
		markdown.WithLogger(b.logger),
		markdown.WithDiagramObserver(observers{&m.Diagrams, b.recorder}))
	history := b.openHistory(ctx, contentRoot)

	stageStart = time.Now()
	renderCtx := observability.WithStage(ctx, StageRender)
	for _, rel := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, draft, err := b.renderPage(observability.WithPage(renderCtx, rel), contentFS, renderer, history, rel)
		if err != nil {
			return err
		}
		if draft {
			res.Drafts++
			continue
		}
		m.Pages = append(m.Pages, page)
	}
	res.Pages = len(m.Pages)
	b.recorder.IncPagesRendered(res.Pages)
	b.stageDone(ctx, StageRender, stageStart, res.Pages)

	stageStart = time.Now()
	m.Sidebar, err = sidebar.Generate(contentFS, cfg.Sidebar, sidebar.Options{CleanURLs: cfg.Site.CleanURLs})
	if err != nil {
		return err
	}
	m.Search.Locales = i18n.All(cfg.Search, cfg.Site.Lang)
	b.stageDone(ctx, StageSidebar, stageStart, len(m.Sidebar))

	stageStart = time.Now()
	unchanged, err := b.writeManifest(ctx, m)
	if err != nil {
		return err
	}
	res.Manifest = m
	res.ManifestUnchanged = unchanged
	b.stageDone(ctx, StageManifest, stageStart, 1)
	return nil
}

// renderPage renders rel and writes its fragment. Drafts are reported but not written.
func (b *Builder) renderPage(ctx context.Context, fsys fs.FS, r *markdown.Renderer, history *gitinfo.Resolver, rel string) (manifest.Page, bool, error) {
	data, err := fs.ReadFile(fsys, rel)
	if err != nil {
		return manifest.Page{}, false, berrors.WorkspaceError("read page", err).WithContext("page", rel)
	}
	meta, body, err := frontmatter.Parse(data)
	if err != nil {
		return manifest.Page{}, false, berrors.Wrap(err, berrors.CategoryValidation, berrors.SeverityError, "invalid frontmatter").WithContext("page", rel)
	}
	if meta.Draft && !b.includeDrafts {
		b.logger.DebugContext(ctx, "Skipping draft")
		return manifest.Page{}, true, nil
	}

	out, err := r.Render(body)
	if err != nil {
		if be, ok := berrors.As(err); ok {
			return manifest.Page{}, false, be.WithContext("page", rel)
		}
		return manifest.Page{}, false, berrors.RenderFailed(rel, err)
	}

	page := manifest.Page{
		Source:      rel,
		Route:       Route(rel, b.cfg.Site.CleanURLs),
		Fragment:    FragmentPath(rel),
		Title:       meta.Title,
		Description: meta.Description,
		Tags:        meta.Tags,
		Diagrams:    out.Diagrams,
		Links:       out.Links,
	}
	if page.Title == "" {
		page.Title = out.Title
	}
	if !meta.Date.IsZero() {
		d := meta.Date
		page.Date = &d
	}
	if b.cfg.Site.LastUpdated {
		if ts, ok := b.lastUpdated(ctx, history, rel); ok {
			page.LastUpdated = &ts
		}
	}

	dst := filepath.Join(b.outputDir, filepath.FromSlash(page.Fragment))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return manifest.Page{}, false, berrors.WorkspaceError("create fragment directory", err).WithContext("path", dst)
	}
	if err := os.WriteFile(dst, out.HTML, 0o644); err != nil {
		return manifest.Page{}, false, berrors.WorkspaceError("write fragment", err).WithContext("path", dst)
	}
	b.logger.DebugContext(ctx, "Rendered page", logfields.Route(page.Route), logfields.Count(out.Diagrams))
	return page, false, nil
}

// openHistory returns nil when last-updated is off or the content is not in a repository.
func (b *Builder) openHistory(ctx context.Context, contentRoot string) *gitinfo.Resolver {
	if !b.cfg.Site.LastUpdated {
		return nil
	}
	r, err := gitinfo.Open(contentRoot)
	if err != nil {
		b.logger.DebugContext(ctx, "No git repository for content; using file times", logfields.Path(contentRoot), logfields.Error(err))
		return nil
	}
	return r
}

// lastUpdated prefers the newest commit touching the page and falls back to its mtime.
func (b *Builder) lastUpdated(ctx context.Context, history *gitinfo.Resolver, rel string) (time.Time, bool) {
	abs := filepath.Join(b.cfg.Content.Root, filepath.FromSlash(rel))
	if history != nil {
		ts, err := history.LastUpdated(abs)
		if err == nil {
			return ts.UTC(), true
		}
		if !errors.Is(err, gitinfo.ErrNotTracked) {
			b.logger.WarnContext(ctx, "Git history lookup failed", logfields.Error(err))
		}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime().UTC(), true
}

func (b *Builder) stageDone(ctx context.Context, stage string, start time.Time, n int) {
	d := time.Since(start)
	b.recorder.ObserveStageDuration(stage, d)
	b.logger.DebugContext(observability.WithStage(ctx, stage), "Stage complete", logfields.Count(n), logfields.DurationMS(float64(d.Microseconds())/1000))
}

func outcomeFor(s Status) string {
	switch s {
	case StatusSuccess:
		return metrics.OutcomeSuccess
	case StatusCanceled:
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

// observers fans one diagram outcome out to several observers.
type observers []markdown.DiagramObserver

func (o observers) IncDiagram(outcome string) {
	for _, obs := range o {
		obs.IncDiagram(outcome)
	}
}
