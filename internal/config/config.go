package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
)

// DefaultPath is the configuration file looked up when no --config flag is given.
const DefaultPath = "blogsite.yaml"

// Config represents the blog site configuration.
type Config struct {
	Site     SiteConfig      `yaml:"site"`
	Theme    ThemeConfig     `yaml:"theme"`
	Nav      []NavItem       `yaml:"nav,omitempty"`
	Sidebar  []SidebarSource `yaml:"sidebar,omitempty"`
	Search   SearchConfig    `yaml:"search"`
	Markdown MarkdownConfig  `yaml:"markdown"`
	Content  ContentConfig   `yaml:"content"`
	Output   OutputConfig    `yaml:"output"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// SiteConfig holds site-wide metadata.
type SiteConfig struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Lang        string `yaml:"lang,omitempty" json:"lang,omitempty"`
	Base        string `yaml:"base,omitempty" json:"base,omitempty"`        // URL path prefix the site is served under
	BaseURL     string `yaml:"base_url,omitempty" json:"baseURL,omitempty"` // absolute origin, used for canonical links
	LastUpdated bool   `yaml:"last_updated" json:"lastUpdated"`
	CleanURLs   bool   `yaml:"clean_urls" json:"cleanUrls"`
}

// ThemeConfig holds options passed through to the theme.
type ThemeConfig struct {
	Appearance  Appearance        `yaml:"appearance,omitempty" json:"appearance,omitempty"`
	Logo        string            `yaml:"logo,omitempty" json:"logo,omitempty"`
	SocialLinks []SocialLink      `yaml:"social_links,omitempty" json:"socialLinks,omitempty"`
	Footer      *FooterConfig     `yaml:"footer,omitempty" json:"footer,omitempty"`
	Outline     OutlineConfig     `yaml:"outline" json:"outline"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"` // UI labels such as last_updated, prev, next
}

// SocialLink is an icon link rendered in the navigation bar.
type SocialLink struct {
	Icon string `yaml:"icon" json:"icon"`
	Link string `yaml:"link" json:"link"`
}

// FooterConfig is the optional page footer.
type FooterConfig struct {
	Message   string `yaml:"message,omitempty" json:"message,omitempty"`
	Copyright string `yaml:"copyright,omitempty" json:"copyright,omitempty"`
}

// OutlineConfig controls the on-page table of contents.
type OutlineConfig struct {
	Levels [2]int `yaml:"levels,flow" json:"level"`
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
}

// NavItem is a navigation bar entry. Entries with Items render as dropdowns.
type NavItem struct {
	Text        string    `yaml:"text" json:"text"`
	Link        string    `yaml:"link,omitempty" json:"link,omitempty"`
	ActiveMatch string    `yaml:"active_match,omitempty" json:"activeMatch,omitempty"`
	Items       []NavItem `yaml:"items,omitempty" json:"items,omitempty"`
}

// SidebarSource declares a content folder whose files become a sidebar group.
type SidebarSource struct {
	Route     string `yaml:"route"`  // route prefix the sidebar is shown under, e.g. /notes/
	Folder    string `yaml:"folder"` // folder relative to content.root
	Title     string `yaml:"title,omitempty"`
	Collapsed bool   `yaml:"collapsed,omitempty"`
	Recursive bool   `yaml:"recursive,omitempty"`
}

// SearchConfig configures the local search UI.
type SearchConfig struct {
	Provider string                  `yaml:"provider,omitempty"`
	Locales  map[string]SearchLocale `yaml:"locales,omitempty"` // "root" or a BCP-47 tag
}

// SearchLocale carries the translated search UI strings.
type SearchLocale struct {
	ButtonText       string       `yaml:"button_text,omitempty" json:"buttonText,omitempty"`
	ButtonAriaLabel  string       `yaml:"button_aria_label,omitempty" json:"buttonAriaLabel,omitempty"`
	Placeholder      string       `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	NoResultsText    string       `yaml:"no_results_text,omitempty" json:"noResultsText,omitempty"`
	ResetButtonTitle string       `yaml:"reset_button_title,omitempty" json:"resetButtonTitle,omitempty"`
	Footer           SearchFooter `yaml:"footer,omitempty" json:"footer"`
}

// SearchFooter holds the keyboard hint strings shown under search results.
type SearchFooter struct {
	SelectText   string `yaml:"select_text,omitempty" json:"selectText,omitempty"`
	NavigateText string `yaml:"navigate_text,omitempty" json:"navigateText,omitempty"`
	CloseText    string `yaml:"close_text,omitempty" json:"closeText,omitempty"`
}

// MarkdownConfig controls the goldmark pipeline.
type MarkdownConfig struct {
	LineNumbers    bool          `yaml:"line_numbers"`
	HighlightStyle string        `yaml:"highlight_style,omitempty"`
	UnsafeHTML     bool          `yaml:"unsafe_html"`
	HardWraps      bool          `yaml:"hard_wraps,omitempty"`
	Typographer    bool          `yaml:"typographer,omitempty"`
	Diagrams       DiagramConfig `yaml:"diagrams"`
}

// DiagramConfig configures the PlantUML fence extension.
type DiagramConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Marker         string        `yaml:"marker,omitempty"`
	Server         string        `yaml:"server,omitempty"`
	StyleHeader    string        `yaml:"style_header,omitempty"`
	Alt            string        `yaml:"alt,omitempty"` // alt text of the emitted image
	OnMissingStart MissingPolicy `yaml:"on_missing_start,omitempty"`
}

// ContentConfig locates the Markdown sources.
type ContentConfig struct {
	Root    string   `yaml:"root"`
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
	Manifest  string `yaml:"manifest,omitempty"` // file name inside Directory
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load loads, defaults and validates configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// A missing .env is the common case and not worth reporting.
	_ = loadEnvFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, berrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, berrors.WorkspaceError("read config", err).WithContext("path", configPath)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, berrors.ConfigInvalid(configPath, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands ${VAR} references in data, unmarshals it and applies defaults.
// It does not validate.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := &Config{
		Site: SiteConfig{
			Title:       "My Blog",
			Description: "Notes on software and everything around it",
			Lang:        "en-US",
			LastUpdated: true,
			CleanURLs:   true,
		},
		Theme: ThemeConfig{
			Appearance:  AppearanceAuto,
			SocialLinks: []SocialLink{{Icon: "github", Link: "https://github.com/example"}},
			Footer:      &FooterConfig{Copyright: "Copyright © Example"},
		},
		Nav: []NavItem{
			{Text: "Home", Link: "/"},
			{Text: "Notes", Link: "/notes/", ActiveMatch: "^/notes/"},
			{Text: "More", Items: []NavItem{{Text: "About", Link: "/about"}}},
		},
		Sidebar: []SidebarSource{
			{Route: "/notes/", Folder: "notes", Title: "Notes"},
		},
		Search: SearchConfig{
			Provider: SearchProviderLocal,
			Locales: map[string]SearchLocale{
				"zh": {ButtonText: "搜索文档", Placeholder: "搜索文档", NoResultsText: "无法找到相关结果"},
			},
		},
		Markdown: MarkdownConfig{
			LineNumbers: true,
			UnsafeHTML:  true,
			Diagrams:    DiagramConfig{Enabled: true},
		},
		Content: ContentConfig{Root: "docs"},
		Output:  OutputConfig{Clean: true},
	}
	applyDefaults(cfg)
	return cfg
}
