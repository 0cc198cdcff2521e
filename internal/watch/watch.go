// Package watch triggers debounced rebuilds when the configuration or content changes.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogsite/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 500 * time.Millisecond

// Change describes one debounced batch of filesystem events.
type Change struct {
	Paths         []string // changed paths, sorted and de-duplicated
	ConfigChanged bool
}

// RebuildFunc is invoked once per debounced batch. Calls never overlap.
type RebuildFunc func(ctx context.Context, change Change) error

// Options configures a Watcher.
type Options struct {
	ConfigPath  string
	ContentRoot string
	// Ignore lists directories whose events are dropped, typically the output directory.
	Ignore   []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher monitors the config file and content tree.
type Watcher struct {
	opts       Options
	configPath string
	ignore     []string
	watcher    *fsnotify.Watcher
	rebuild    RebuildFunc

	mu      sync.Mutex
	pending map[string]bool
	config  bool
	trigger chan struct{}
}

// New creates a Watcher. Nothing is watched until Run.
func New(opts Options, rebuild RebuildFunc) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Watcher{
		opts:    opts,
		rebuild: rebuild,
		pending: make(map[string]bool),
		trigger: make(chan struct{}, 1),
	}
	if opts.ConfigPath != "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		w.configPath = abs
	}
	for _, dir := range opts.Ignore {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve ignored path: %w", err)
		}
		w.ignore = append(w.ignore, abs)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fw
	return w, nil
}

// Run watches until ctx is canceled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.opts.Logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	// Watch the directory containing the config file; editors often replace the file.
	if w.configPath != "" {
		if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
			return fmt.Errorf("failed to watch config directory: %w", err)
		}
	}
	if w.opts.ContentRoot != "" {
		if err := w.addTree(w.opts.ContentRoot); err != nil {
			return err
		}
	}
	w.opts.Logger.Info("Watching for changes",
		logfields.Path(w.opts.ContentRoot),
		slog.String("config_path", w.configPath),
		slog.Duration("debounce", w.opts.Debounce))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildLoop(ctx)
	}()
	w.watchLoop(ctx)
	wg.Wait()
	return nil
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.opts.Logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	isConfig := w.configPath != "" && abs == w.configPath
	if !isConfig {
		if w.ignored(abs) || noise(filepath.Base(abs)) || !w.inContent(abs) {
			return
		}
		if event.Op.Has(fsnotify.Create) {
			// New directories are not covered by existing watches.
			if err := w.addTree(abs); err != nil {
				w.opts.Logger.Debug("Could not watch new path", logfields.Path(abs), logfields.Error(err))
			}
		}
	}

	w.opts.Logger.Debug("Change detected", logfields.Path(abs), slog.String("op", event.Op.String()))
	w.mu.Lock()
	w.pending[abs] = true
	w.config = w.config || isConfig
	w.mu.Unlock()

	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// rebuildLoop waits for the debounce window to pass without new events and
// then runs one rebuild with everything collected so far.
func (w *Watcher) rebuildLoop(ctx context.Context) {
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.opts.Debounce)
		case <-timer.C:
			change, ok := w.drain()
			if !ok {
				continue
			}
			start := time.Now()
			if err := w.rebuild(ctx, change); err != nil {
				w.opts.Logger.Error("Rebuild failed", logfields.Error(err))
				continue
			}
			w.opts.Logger.Info("Rebuild complete",
				logfields.Count(len(change.Paths)),
				logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
		}
	}
}

func (w *Watcher) drain() (Change, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return Change{}, false
	}
	c := Change{ConfigChanged: w.config}
	for p := range w.pending {
		c.Paths = append(c.Paths, p)
	}
	sort.Strings(c.Paths)
	w.pending = make(map[string]bool)
	w.config = false
	return c, true
}

func (w *Watcher) ignored(p string) bool {
	for _, dir := range w.ignore {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) inContent(p string) bool {
	if w.opts.ContentRoot == "" {
		return false
	}
	root, err := filepath.Abs(w.opts.ContentRoot)
	if err != nil {
		return false
	}
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}

// noise reports editor swap and backup files.
func noise(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
