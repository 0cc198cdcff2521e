package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/observability"
)

// Global carries the process streams shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewGlobal returns a Global bound to the process streams.
func NewGlobal() *Global {
	return &Global{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blogsite.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render pages and write the site manifest"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Sidebar SidebarCmd `cmd:"" help:"Print the sidebars generated from the content tree"`
	Render  RenderCmd  `cmd:"" help:"Render one Markdown file to HTML on stdout"`
	Diagram DiagramCmd `cmd:"" help:"Encode, decode and link PlantUML diagram text read from stdin"`
}

// AfterApply runs after flag parsing; set up logging once from the flags.
// Commands that load a configuration refine it with the logging section.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	c.setupLogging(g, config.LoggingConfig{})
	return nil
}

func (c *CLI) setupLogging(g *Global, lc config.LoggingConfig) {
	level := config.NormalizeLogLevel(lc.Level).SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	w := g.Stderr
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.NormalizeLogFormat(lc.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	g.Logger = slog.New(observability.NewContextHandler(handler))
	slog.SetDefault(g.Logger)
}

// loadConfig loads the configuration file and applies its logging section.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.setupLogging(g, cfg.Logging)
	return cfg, nil
}

// loadConfigOrDefaults is loadConfig for commands that also work without a
// configuration file.
func (c *CLI) loadConfigOrDefaults(g *Global) (*config.Config, error) {
	cfg, err := c.loadConfig(g)
	if err == nil {
		return cfg, nil
	}
	if be, ok := berrors.As(err); ok && be.Category == berrors.CategoryConfig && be.Cause == nil {
		g.Logger.Debug("No configuration file; using defaults", "path", c.Config)
		cfg, err := config.Parse(nil)
		if err != nil {
			return nil, err
		}
		// Match what a freshly initialized configuration renders.
		cfg.Markdown.Diagrams.Enabled = true
		return cfg, nil
	}
	return nil, err
}

// ResolveOutputDir picks the CLI flag over output.directory.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Directory
}
