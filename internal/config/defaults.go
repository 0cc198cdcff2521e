package config

import "strings"

// Default values applied by applyDefaults.
const (
	DefaultTitle          = "Blog"
	DefaultLang           = "en-US"
	DefaultContentRoot    = "docs"
	DefaultOutputDir      = "./dist"
	DefaultManifest       = "manifest.json"
	DefaultHighlightStyle = "github"
	DefaultDiagramMarker  = "plantuml"
	DefaultDiagramServer  = "https://www.plantuml.com/plantuml/svg"
	DefaultStyleHeader    = "\nskinparam backgroundColor transparent"
	DefaultDiagramAlt     = "PlantUML"
)

func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = DefaultTitle
	}
	if cfg.Site.Lang == "" {
		cfg.Site.Lang = DefaultLang
	}
	if cfg.Site.Base == "" {
		cfg.Site.Base = "/"
	}
	if !strings.HasPrefix(cfg.Site.Base, "/") {
		cfg.Site.Base = "/" + cfg.Site.Base
	}
	if !strings.HasSuffix(cfg.Site.Base, "/") {
		cfg.Site.Base += "/"
	}

	// Keep unknown values so Validate can report them.
	if a := NormalizeAppearance(string(cfg.Theme.Appearance)); a != "" {
		cfg.Theme.Appearance = a
	}
	if cfg.Theme.Outline.Levels == [2]int{} {
		cfg.Theme.Outline.Levels = [2]int{2, 3}
	}

	for i := range cfg.Sidebar {
		s := &cfg.Sidebar[i]
		if s.Route == "" {
			s.Route = "/" + strings.Trim(s.Folder, "/") + "/"
		}
		if !strings.HasPrefix(s.Route, "/") {
			s.Route = "/" + s.Route
		}
		if !strings.HasSuffix(s.Route, "/") {
			s.Route += "/"
		}
	}

	if cfg.Search.Provider == "" {
		cfg.Search.Provider = SearchProviderLocal
	}

	if cfg.Markdown.HighlightStyle == "" {
		cfg.Markdown.HighlightStyle = DefaultHighlightStyle
	}
	d := &cfg.Markdown.Diagrams
	if d.Marker == "" {
		d.Marker = DefaultDiagramMarker
	}
	d.Marker = strings.TrimSpace(d.Marker)
	if d.Server == "" {
		d.Server = DefaultDiagramServer
	}
	if d.StyleHeader == "" {
		d.StyleHeader = DefaultStyleHeader
	}
	if d.Alt == "" {
		d.Alt = DefaultDiagramAlt
	}
	if p := NormalizeMissingPolicy(string(d.OnMissingStart)); p != "" {
		d.OnMissingStart = p
	}

	if cfg.Content.Root == "" {
		cfg.Content.Root = DefaultContentRoot
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.Manifest == "" {
		cfg.Output.Manifest = DefaultManifest
	}

	cfg.Logging.Level = string(NormalizeLogLevel(cfg.Logging.Level))
	cfg.Logging.Format = string(NormalizeLogFormat(cfg.Logging.Format))
}
