package commands

import (
	"os"

	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/frontmatter"
	"git.home.luguber.info/inful/blogsite/internal/markdown"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	File string `arg:"" help:"Markdown file to render" type:"existingfile"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfigOrDefaults(g)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(r.File)
	if err != nil {
		return berrors.WorkspaceError("read page", err).WithContext("page", r.File)
	}
	_, body, err := frontmatter.Parse(data)
	if err != nil {
		return berrors.Wrap(err, berrors.CategoryValidation, berrors.SeverityError, "invalid frontmatter").WithContext("page", r.File)
	}

	res, err := markdown.NewRenderer(cfg.Markdown, markdown.WithLogger(g.Logger)).Render(body)
	if err != nil {
		if be, ok := berrors.As(err); ok {
			return be.WithContext("page", r.File)
		}
		return berrors.RenderFailed(r.File, err)
	}
	_, err = g.Stdout.Write(res.HTML)
	return err
}
