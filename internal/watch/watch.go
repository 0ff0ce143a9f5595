package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of writes a build produces.
const DefaultDebounce = 300 * time.Millisecond

// Event is a wrapper around fsnotify.Event
type Event struct {
	Name string
	Op   fsnotify.Op
}

// Watcher reports debounced filesystem changes under a set of directories
type Watcher struct {
	watcher  *fsnotify.Watcher
	Dirs     []string
	Debounce time.Duration
	OnEvent  func(Event)
	logger   *slog.Logger
}

// New creates a watcher and registers the directories recursively, so
// changes made after New returns are observed once Run is called.
func New(dirs []string, onEvent func(Event), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		watcher:  fw,
		Dirs:     dirs,
		Debounce: DefaultDebounce,
		OnEvent:  onEvent,
		logger:   logger,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := w.addTree(dir); err != nil {
			w.logger.Warn("Failed to watch directory", "dir", dir, "error", err)
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// isHidden reports dot-directories such as .git, which are never watched.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Run delivers events until ctx is cancelled. The underlying watcher is
// closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("Failed to close file watcher", "error", err)
		}
	}()

	var (
		mu    sync.Mutex
		timer *time.Timer
		last  Event
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			// Ignore chmod and other meta events
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}

			// Handle new directories
			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch directory", "dir", event.Name, "error", err)
					}
				}
			}

			mu.Lock()
			last = Event{Name: event.Name, Op: event.Op}
			if timer != nil {
				timer.Reset(w.Debounce)
			} else {
				timer = time.AfterFunc(w.Debounce, func() {
					mu.Lock()
					ev := last
					mu.Unlock()
					if w.OnEvent != nil {
						w.OnEvent(ev)
					}
				})
			}
			mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}
