package site

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/blogsite/internal/config"
	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
)

// Discover returns the slash-separated paths of all pages in fsys selected by
// the include and exclude globs, sorted. Hidden entries and directories whose
// name starts with "_" are skipped.
func Discover(fsys fs.FS, content config.ContentConfig) ([]string, error) {
	var pages []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || path.Ext(name) != ".md" {
			return nil
		}
		if len(content.Include) > 0 && !matchAny(content.Include, p) {
			return nil
		}
		if matchAny(content.Exclude, p) {
			return nil
		}
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, berrors.WorkspaceError("discover pages", err).WithContext("root", content.Root)
	}
	sort.Strings(pages)
	return pages, nil
}

// matchAny reports whether p or its base name matches one of the globs.
// Invalid patterns are rejected by config validation and never match here.
func matchAny(patterns []string, p string) bool {
	base := path.Base(p)
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, p); ok {
			return true
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
		// "drafts/*" also excludes everything below drafts/.
		if dir := strings.TrimSuffix(pat, "/*"); dir != pat && strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}

// Route returns the URL path for a page, relative to the site base.
// index.md maps to its folder.
func Route(rel string, cleanURLs bool) string {
	stem := strings.TrimSuffix(rel, ".md")
	if stem == "index" {
		return "/"
	}
	if strings.HasSuffix(stem, "/index") {
		return "/" + strings.TrimSuffix(stem, "index")
	}
	if cleanURLs {
		return "/" + stem
	}
	return "/" + stem + ".html"
}

// FragmentPath returns where a page's HTML fragment is written, relative to
// the output directory.
func FragmentPath(rel string) string {
	return strings.TrimSuffix(rel, ".md") + ".html"
}
