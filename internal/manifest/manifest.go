// Package manifest describes the resolved site data handed to the theme build.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/blogsite/internal/config"
	"git.home.luguber.info/inful/blogsite/internal/markdown"
	"git.home.luguber.info/inful/blogsite/internal/sidebar"
)

// Manifest is the complete record of one build: resolved configuration plus
// every rendered page.
type Manifest struct {
	Site        config.SiteConfig          `json:"site"`
	Theme       config.ThemeConfig         `json:"theme"`
	Nav         []config.NavItem           `json:"nav,omitempty"`
	Sidebar     map[string][]sidebar.Group `json:"sidebar,omitempty"`
	Search      Search                     `json:"search"`
	Pages       []Page                     `json:"pages"`
	Diagrams    DiagramStats               `json:"diagrams"`
	ContentHash string                     `json:"contentHash"`
	GeneratedAt time.Time                  `json:"generatedAt"`
}

// Search is the resolved search UI configuration.
type Search struct {
	Provider string                         `json:"provider"`
	Locales  map[string]config.SearchLocale `json:"locales"`
}

// Page is one rendered Markdown source.
type Page struct {
	Source      string          `json:"source"` // path relative to content root
	Route       string          `json:"route"`
	Fragment    string          `json:"fragment"` // HTML fragment path relative to the output directory
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Date        *time.Time      `json:"date,omitempty"`
	LastUpdated *time.Time      `json:"lastUpdated,omitempty"`
	Diagrams    int             `json:"diagrams,omitempty"`
	Links       []markdown.Link `json:"links,omitempty"`
}

// DiagramStats totals diagram fences by outcome across the build.
type DiagramStats struct {
	Rendered int `json:"rendered"`
	Raw      int `json:"raw"`
	Skipped  int `json:"skipped"`
}

// IncDiagram implements markdown.DiagramObserver.
func (d *DiagramStats) IncDiagram(outcome string) {
	switch outcome {
	case markdown.DiagramRendered:
		d.Rendered++
	case markdown.DiagramRaw:
		d.Raw++
	case markdown.DiagramSkipped:
		d.Skipped++
	}
}

// ToJSON serializes the manifest to indented JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of everything except the timestamps that
// change on every build. Two builds of unchanged content hash equal.
func (m *Manifest) Hash() (string, error) {
	hashInput := struct {
		Site    config.SiteConfig          `json:"site"`
		Theme   config.ThemeConfig         `json:"theme"`
		Nav     []config.NavItem           `json:"nav"`
		Sidebar map[string][]sidebar.Group `json:"sidebar"`
		Search  Search                     `json:"search"`
		Pages   []Page                     `json:"pages"`
	}{
		Site:    m.Site,
		Theme:   m.Theme,
		Nav:     m.Nav,
		Sidebar: m.Sidebar,
		Search:  m.Search,
		Pages:   m.Pages,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
