package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/language"

	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
)

// Validate checks a defaulted configuration and returns the first problem found.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateSite,
		validateTheme,
		validateSidebar,
		validateSearch,
		validateDiagrams,
		validateContent,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateSite(cfg *Config) error {
	if cfg.Site.Title == "" {
		return berrors.ValidationFailed("site.title", "must not be empty")
	}
	if _, err := language.Parse(cfg.Site.Lang); err != nil {
		return berrors.ValidationFailed("site.lang", fmt.Sprintf("invalid language tag %q", cfg.Site.Lang))
	}
	if cfg.Site.BaseURL != "" {
		u, err := url.Parse(cfg.Site.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return berrors.ValidationFailed("site.base_url", "must be an absolute URL")
		}
	}
	return nil
}

func validateTheme(cfg *Config) error {
	if NormalizeAppearance(string(cfg.Theme.Appearance)) == "" {
		return berrors.ValidationFailed("theme.appearance", fmt.Sprintf("unknown appearance %q", cfg.Theme.Appearance))
	}
	lv := cfg.Theme.Outline.Levels
	if lv[0] < 1 || lv[1] > 6 || lv[0] > lv[1] {
		return berrors.ValidationFailed("theme.outline.levels", "must be an ascending pair within 1..6")
	}
	return validateNav(cfg.Nav, "nav")
}

func validateNav(items []NavItem, field string) error {
	for i, item := range items {
		f := fmt.Sprintf("%s[%d]", field, i)
		if item.Text == "" {
			return berrors.ValidationFailed(f+".text", "must not be empty")
		}
		if item.Link == "" && len(item.Items) == 0 {
			return berrors.ValidationFailed(f, "needs a link or child items")
		}
		if err := validateNav(item.Items, f+".items"); err != nil {
			return err
		}
	}
	return nil
}

func validateSidebar(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Sidebar))
	for i, s := range cfg.Sidebar {
		f := fmt.Sprintf("sidebar[%d]", i)
		if s.Folder == "" {
			return berrors.ValidationFailed(f+".folder", "must not be empty")
		}
		if clean := path.Clean(s.Folder); path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return berrors.ValidationFailed(f+".folder", "must stay inside content.root")
		}
		if seen[s.Route] {
			return berrors.ValidationFailed(f+".route", fmt.Sprintf("duplicate route %q", s.Route))
		}
		seen[s.Route] = true
	}
	return nil
}

func validateSearch(cfg *Config) error {
	if cfg.Search.Provider != SearchProviderLocal {
		return berrors.ValidationFailed("search.provider", fmt.Sprintf("unsupported provider %q", cfg.Search.Provider))
	}
	for key := range cfg.Search.Locales {
		if key == "root" {
			continue
		}
		if _, err := language.Parse(key); err != nil {
			return berrors.ValidationFailed("search.locales", fmt.Sprintf("invalid language tag %q", key))
		}
	}
	return nil
}

func validateDiagrams(cfg *Config) error {
	d := cfg.Markdown.Diagrams
	if NormalizeMissingPolicy(string(d.OnMissingStart)) == "" {
		return berrors.ValidationFailed("markdown.diagrams.on_missing_start", fmt.Sprintf("unknown policy %q", d.OnMissingStart))
	}
	if !d.Enabled {
		return nil
	}
	if d.Marker == "" {
		return berrors.ValidationFailed("markdown.diagrams.marker", "must not be empty")
	}
	u, err := url.Parse(d.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return berrors.ValidationFailed("markdown.diagrams.server", "must be an absolute URL")
	}
	return nil
}

func validateContent(cfg *Config) error {
	for _, pattern := range append(append([]string{}, cfg.Content.Include...), cfg.Content.Exclude...) {
		if _, err := path.Match(pattern, ""); err != nil {
			return berrors.ValidationFailed("content", fmt.Sprintf("bad glob %q", pattern))
		}
	}
	return nil
}
