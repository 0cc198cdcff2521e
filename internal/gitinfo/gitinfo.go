// Package gitinfo looks up page history in the repository holding the content.
package gitinfo

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"

	berrors "git.home.luguber.info/inful/blogsite/internal/errors"
)

// ErrNotTracked is returned for files with no commit history.
var ErrNotTracked = errors.New("file has no commit history")

// Resolver answers last-updated queries for files inside one repository.
type Resolver struct {
	repo *git.Repository
	root string

	mu    sync.Mutex
	cache map[string]time.Time
}

// Open finds the repository containing path, searching parent directories.
func Open(path string) (*Resolver, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, berrors.GitHistoryError(path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, berrors.GitHistoryError(path, err)
	}
	root, err := canonical(wt.Filesystem.Root())
	if err != nil {
		return nil, berrors.GitHistoryError(path, err)
	}
	return &Resolver{repo: repo, root: root, cache: make(map[string]time.Time)}, nil
}

// Root is the repository's worktree root.
func (r *Resolver) Root() string { return r.root }

// LastUpdated returns the committer time of the newest commit touching file.
func (r *Resolver) LastUpdated(file string) (time.Time, error) {
	abs, err := canonical(file)
	if err != nil {
		return time.Time{}, berrors.GitHistoryError(file, err)
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return time.Time{}, berrors.GitHistoryError(file, err)
	}
	rel = filepath.ToSlash(rel)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ts, ok := r.cache[rel]; ok {
		return ts, nil
	}

	iter, err := r.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, berrors.GitHistoryError(file, err)
	}
	defer iter.Close()

	c, err := iter.Next()
	if errors.Is(err, io.EOF) {
		return time.Time{}, ErrNotTracked
	}
	if err != nil {
		return time.Time{}, berrors.GitHistoryError(file, err)
	}
	ts := c.Committer.When
	r.cache[rel] = ts
	return ts, nil
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
