// Package filesystem watches a local directory for PDF reports.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/reportrag/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is reported.
const DefaultSettle = 2 * time.Second

// ErrClosed is returned when an inbox is used after Close.
var ErrClosed = errors.New("inbox closed")

// Inbox reports PDF files dropped into a directory tree.
// Hidden files and directories are ignored.
type Inbox struct {
	root   string
	settle time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithSettle sets the quiet period after the last write before a file is reported.
func WithSettle(d time.Duration) Option {
	return func(i *Inbox) {
		i.settle = d
	}
}

// New creates an inbox rooted at root.
func New(root string, opts ...Option) *Inbox {
	i := &Inbox{
		root:   root,
		settle: DefaultSettle,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Root returns the watched directory.
func (i *Inbox) Root() string {
	return i.root
}

// Scan returns every visible PDF under the root, sorted.
func (i *Inbox) Scan() ([]string, error) {
	if err := i.checkRoot(); err != nil {
		return nil, err
	}

	var paths []string
	err := filepath.WalkDir(i.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != i.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && isPDF(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", i.root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// Watch reports created or rewritten PDFs once they stop changing.
// The channel closes when ctx is done or the inbox is closed.
func (i *Inbox) Watch(ctx context.Context) (<-chan string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, ErrClosed
	}
	if err := i.checkRoot(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := i.addTree(watcher, i.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	i.watcher = watcher

	out := make(chan string)
	go i.run(ctx, watcher, out)
	return out, nil
}

// Close stops any running watch. It is safe to call more than once.
func (i *Inbox) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	if i.watcher != nil {
		return i.watcher.Close()
	}
	return nil
}

func (i *Inbox) run(ctx context.Context, watcher *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer watcher.Close()

	// path -> last event time
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(i.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
				if err := i.addTree(watcher, event.Name); err != nil {
					logger.Warn("watching %s: %v", event.Name, err)
				}
				continue
			}
			if path, ok := i.handleFsEvent(event); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("inbox watcher: %v", err)

		case now := <-ticker.C:
			for _, path := range settled(pending, now, i.settle) {
				delete(pending, path)
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent returns the PDF path a create or write event refers to.
func (i *Inbox) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(filepath.Base(event.Name)) || !isPDF(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

func (i *Inbox) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != i.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (i *Inbox) checkRoot() error {
	info, err := os.Stat(i.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", i.root)
	}
	return nil
}

func (i *Inbox) tick() time.Duration {
	if t := i.settle / 4; t > 10*time.Millisecond {
		return t
	}
	return 10 * time.Millisecond
}

// settled returns, sorted, the pending paths quiet for at least settle.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}

// isHidden reports whether any path element starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
