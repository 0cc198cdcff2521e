// Package sidebar builds navigation sidebars from the content file tree.
package sidebar

import (
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
	"git.home.luguber.info/inful/blogsite/internal/frontmatter"
	"git.home.luguber.info/inful/blogsite/internal/markdown"
)

const indexFile = "index.md"

// Group is a titled sidebar section.
type Group struct {
	Text      string `json:"text" yaml:"text"`
	Link      string `json:"link,omitempty" yaml:"link,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	Items     []Item `json:"items" yaml:"items"`
}

// Item is a page or, when Items is set, a nested folder.
type Item struct {
	Text  string `json:"text" yaml:"text"`
	Link  string `json:"link,omitempty" yaml:"link,omitempty"`
	Items []Item `json:"items,omitempty" yaml:"items,omitempty"`
	order *int
	name  string
}

// Options controls link shape.
type Options struct {
	// CleanURLs drops the .html suffix from page links.
	CleanURLs bool
}

// Generate walks every source folder in fsys (rooted at the content root) and
// returns the sidebar groups keyed by route prefix.
func Generate(fsys fs.FS, sources []config.SidebarSource, opts Options) (map[string][]Group, error) {
	out := make(map[string][]Group, len(sources))
	for _, src := range sources {
		g, err := generateGroup(fsys, src, opts)
		if err != nil {
			return nil, err
		}
		out[src.Route] = append(out[src.Route], g)
	}
	return out, nil
}

func generateGroup(fsys fs.FS, src config.SidebarSource, opts Options) (Group, error) {
	dir := path.Clean(strings.Trim(src.Folder, "/"))
	info, err := fs.Stat(fsys, dir)
	if err != nil {
		return Group{}, berrors.WorkspaceError("read sidebar folder", err).WithContext("folder", src.Folder)
	}
	if !info.IsDir() {
		return Group{}, berrors.WorkspaceError("read sidebar folder", errors.New("not a directory")).WithContext("folder", src.Folder)
	}

	// Links follow the page's content path, src.Route only keys the group.
	prefix := folderRoute(dir)
	w := walker{fsys: fsys, opts: opts, recursive: src.Recursive}
	items, indexTitle, hasIndex, err := w.walk(dir, prefix)
	if err != nil {
		return Group{}, err
	}

	g := Group{Text: src.Title, Collapsed: src.Collapsed, Items: items}
	if g.Text == "" {
		g.Text = indexTitle
	}
	if g.Text == "" {
		g.Text = Humanize(path.Base(dir))
	}
	if hasIndex {
		g.Link = prefix
	}
	return g, nil
}

// folderRoute is the URL prefix of pages stored under dir.
func folderRoute(dir string) string {
	if dir == "." || dir == "" {
		return "/"
	}
	return "/" + dir + "/"
}

type walker struct {
	fsys      fs.FS
	opts      Options
	recursive bool
}

// walk lists dir and returns its items plus the title of its index page.
func (w walker) walk(dir, route string) ([]Item, string, bool, error) {
	entries, err := fs.ReadDir(w.fsys, dir)
	if err != nil {
		return nil, "", false, berrors.WorkspaceError("read sidebar folder", err).WithContext("folder", dir)
	}

	var (
		items      []Item
		indexTitle string
		hasIndex   bool
	)
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		p := path.Join(dir, name)

		if e.IsDir() {
			if !w.recursive {
				continue
			}
			children, title, idx, err := w.walk(p, route+name+"/")
			if err != nil {
				return nil, "", false, err
			}
			if len(children) == 0 && !idx {
				continue
			}
			it := Item{Text: title, Items: children, name: name}
			if it.Text == "" {
				it.Text = Humanize(name)
			}
			if idx {
				it.Link = route + name + "/"
			}
			items = append(items, it)
			continue
		}

		if path.Ext(name) != ".md" {
			continue
		}
		meta, title, err := w.pageTitle(p)
		if err != nil {
			return nil, "", false, err
		}
		if name == indexFile {
			hasIndex = true
			indexTitle = title
			continue
		}
		if !meta.InSidebar() {
			continue
		}
		base := strings.TrimSuffix(name, ".md")
		if title == "" {
			title = Humanize(base)
		}
		items = append(items, Item{Text: title, Link: w.link(route, base), order: meta.Order, name: name})
	}

	sortItems(items)
	return items, indexTitle, hasIndex, nil
}

func (w walker) pageTitle(p string) (frontmatter.Meta, string, error) {
	data, err := fs.ReadFile(w.fsys, p)
	if err != nil {
		return frontmatter.Meta{}, "", berrors.WorkspaceError("read page", err).WithContext("page", p)
	}
	meta, body, err := frontmatter.Parse(data)
	if err != nil {
		return frontmatter.Meta{}, "", berrors.Wrap(err, berrors.CategoryValidation, berrors.SeverityError, "invalid frontmatter").WithContext("page", p)
	}
	if meta.Title != "" {
		return meta, meta.Title, nil
	}
	return meta, markdown.FirstHeading(body), nil
}

func (w walker) link(route, base string) string {
	if w.opts.CleanURLs {
		return route + base
	}
	return route + base + ".html"
}

// sortItems orders by explicit order (unordered last), then title, then file name.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.order != nil && b.order == nil:
			return true
		case a.order == nil && b.order != nil:
			return false
		case a.order != nil && b.order != nil && *a.order != *b.order:
			return *a.order < *b.order
		}
		if ta, tb := strings.ToLower(a.Text), strings.ToLower(b.Text); ta != tb {
			return ta < tb
		}
		return a.name < b.name
	})
}

// Humanize turns a file or folder name like "getting-started" into "Getting Started".
func Humanize(name string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
