package commands

import (
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/plantuml"
)

// DiagramCmd groups the PlantUML text helpers.
type DiagramCmd struct {
	Encode DiagramEncodeCmd `cmd:"" help:"Encode diagram text from stdin"`
	Decode DiagramDecodeCmd `cmd:"" help:"Decode an encoded diagram from stdin"`
	URL    DiagramURLCmd    `cmd:"" name:"url" help:"Print the image URL for diagram text on stdin, as the Markdown hook would emit it"`
}

// DiagramEncodeCmd implements 'diagram encode'.
type DiagramEncodeCmd struct{}

func (DiagramEncodeCmd) Run(g *Global) error {
	src, err := readInput(g)
	if err != nil {
		return err
	}
	encoded, err := plantuml.Encode(src)
	if err != nil {
		return berrors.InternalError("encode diagram", err)
	}
	_, err = fmt.Fprintln(g.Stdout, encoded)
	return err
}

// DiagramDecodeCmd implements 'diagram decode'.
type DiagramDecodeCmd struct{}

func (DiagramDecodeCmd) Run(g *Global) error {
	src, err := readInput(g)
	if err != nil {
		return err
	}
	decoded, err := plantuml.Decode(src)
	if err != nil {
		return berrors.Wrap(err, berrors.CategoryValidation, berrors.SeverityError, "invalid encoded diagram")
	}
	_, err = fmt.Fprintln(g.Stdout, decoded)
	return err
}

// DiagramURLCmd implements 'diagram url'.
type DiagramURLCmd struct {
	Server  string `help:"PlantUML server base URL" default:"${diagram_server}"`
	NoStyle bool   `name:"no-style" help:"Do not insert the style header after @startuml"`
}

func (u DiagramURLCmd) Run(g *Global) error {
	src, err := readInput(g)
	if err != nil {
		return err
	}
	if !u.NoStyle {
		src, err = plantuml.Inject(src, config.DefaultStyleHeader)
		if err != nil {
			return berrors.DiagramMarkerMissing(plantuml.StartMarker)
		}
	}
	encoded, err := plantuml.Encode(src)
	if err != nil {
		return berrors.InternalError("encode diagram", err)
	}
	_, err = fmt.Fprintln(g.Stdout, plantuml.URL(u.Server, encoded))
	return err
}

// readInput reads stdin and trims surrounding whitespace, as the Markdown hook trims fence content.
func readInput(g *Global) (string, error) {
	data, err := io.ReadAll(g.Stdin)
	if err != nil {
		return "", berrors.WorkspaceError("read stdin", err)
	}
	return strings.TrimSpace(string(data)), nil
}
