package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogsite/internal/config"
	"git.home.luguber.info/inful/blogsite/internal/logfields"
	"git.home.luguber.info/inful/blogsite/internal/metrics"
	"git.home.luguber.info/inful/blogsite/internal/site"
	"git.home.luguber.info/inful/blogsite/internal/watch"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output          string `short:"o" help:"Output directory (overrides output.directory)"`
	Drafts          bool   `help:"Include pages marked draft: true"`
	Watch           bool   `short:"w" help:"Rebuild when the configuration or content changes"`
	MetricsTextfile string `name:"metrics-textfile" help:"Write build metrics in Prometheus text format to this file after each build" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		recorder metrics.Recorder = metrics.NoopRecorder{}
		registry *prom.Registry
	)
	if b.MetricsTextfile != "" {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	build := func(ctx context.Context, cfg *config.Config) error {
		builder := site.NewBuilder(cfg,
			site.WithLogger(g.Logger),
			site.WithRecorder(recorder),
			site.WithOutputDir(ResolveOutputDir(b.Output, cfg)),
			site.WithDrafts(b.Drafts))
		_, buildErr := builder.Build(ctx)
		if registry != nil {
			if err := metrics.WriteTextfile(b.MetricsTextfile, registry); err != nil {
				g.Logger.Warn("Failed to write metrics", logfields.Path(b.MetricsTextfile), logfields.Error(err))
			}
		}
		return buildErr
	}

	if err := build(ctx, cfg); err != nil && !b.Watch {
		return err
	}
	if !b.Watch {
		return nil
	}

	w, err := watch.New(watch.Options{
		ConfigPath:  root.Config,
		ContentRoot: cfg.Content.Root,
		Ignore:      []string{ResolveOutputDir(b.Output, cfg)},
		Logger:      g.Logger,
	}, func(ctx context.Context, change watch.Change) error {
		if change.ConfigChanged {
			next, err := root.loadConfig(g)
			if err != nil {
				g.Logger.Error("Keeping previous configuration", logfields.Error(err))
			} else {
				cfg = next
			}
		}
		return build(ctx, cfg)
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
