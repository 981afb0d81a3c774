// Package watcher implements props hot reload for the development server:
// it watches the configured YAML props file and feeds re-parsed root props
// into the runtime whenever the file changes, with debouncing so editor
// write bursts trigger a single render pass.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ignius299792458/rv-react/internal/logging"
	"github.com/ignius299792458/rv-react/internal/types"
)

// DefaultDebounce groups rapid file changes together.
const DefaultDebounce = 100 * time.Millisecond

// PropsHandler receives the freshly parsed root props after each change.
type PropsHandler func(types.Props)

// PropsWatcher watches one YAML props file for changes.
type PropsWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	handler  PropsHandler
	logger   logging.Logger
}

// NewPropsWatcher creates a watcher for the props file at path. The
// containing directory is watched rather than the file itself, since most
// editors replace files on save.
func NewPropsWatcher(path string, debounce time.Duration, logger logging.Logger, handler PropsHandler) (*PropsWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving props file path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &PropsWatcher{
		watcher:  fsWatcher,
		path:     absPath,
		debounce: debounce,
		handler:  handler,
		logger:   logger.WithComponent("props-watcher"),
	}, nil
}

// Start processes file events until ctx is cancelled. It blocks and is
// normally run on its own goroutine.
func (w *PropsWatcher) Start(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// Restart the debounce window on every burst member.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

// Close releases the underlying file watcher.
func (w *PropsWatcher) Close() error {
	return w.watcher.Close()
}

func (w *PropsWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *PropsWatcher) reload(ctx context.Context) {
	props, err := LoadProps(w.path)
	if err != nil {
		// Half-written files are expected mid-save; keep the last good
		// props and wait for the next event.
		w.logger.Warn(ctx, err, "Props file unreadable, keeping previous props")
		return
	}
	w.logger.Info(ctx, "Props reloaded", "file", w.path, "keys", len(props))
	if w.handler != nil {
		w.handler(props)
	}
}

// LoadProps parses a YAML props file into root props.
func LoadProps(path string) (types.Props, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading props file: %w", err)
	}

	props := types.Props{}
	if err := yaml.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("parsing props file %s: %w", path, err)
	}
	return props, nil
}
