package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogsite/cmd/blogsite/commands"
	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], commands.NewGlobal()))
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string, g *commands.Global) int {
	var cli commands.CLI
	parser, err := kong.New(&cli,
		kong.Name("blogsite"),
		kong.Description("Build a blog from Markdown: sidebars, rendered pages with PlantUML diagrams, and a site manifest."),
		kong.UsageOnError(),
		kong.Vars{
			"version":        version.String(),
			"diagram_server": config.DefaultDiagramServer,
		},
		kong.Bind(g),
		kong.Writers(g.Stdout, g.Stderr),
	)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	if err := ctx.Run(g, &cli); err != nil {
		adapter := berrors.NewCLIErrorAdapter(cli.Verbose, g.Logger)
		adapter.Log(err)
		return adapter.ExitCodeFor(err)
	}
	return 0
}
