package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogsite/internal/sidebar"
)

// SidebarCmd implements the 'sidebar' command.
type SidebarCmd struct {
	Format string `short:"f" help:"Output format" enum:"yaml,json" default:"yaml"`
}

func (s *SidebarCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	groups, err := sidebar.Generate(os.DirFS(cfg.Content.Root), cfg.Sidebar, sidebar.Options{CleanURLs: cfg.Site.CleanURLs})
	if err != nil {
		return err
	}

	switch s.Format {
	case "json":
		enc := json.NewEncoder(g.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(groups); err != nil {
			return fmt.Errorf("encode sidebar: %w", err)
		}
	default:
		enc := yaml.NewEncoder(g.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(groups); err != nil {
			return fmt.Errorf("encode sidebar: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode sidebar: %w", err)
		}
	}
	return nil
}
