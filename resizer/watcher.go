package resizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"imgtools/common"
)

// DefaultDebounce is how long a file must stay quiet before it is resized
const DefaultDebounce = 500 * time.Millisecond

// Watcher resizes images as they are created or rewritten in a directory
type Watcher struct {
	resizer  *Resizer
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	results  chan Result

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher for dir
func NewWatcher(r *Resizer, dir string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		resizer:  r,
		dir:      dir,
		debounce: debounce,
		watcher:  fsWatcher,
		results:  make(chan Result, 100),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Start begins monitoring the directory
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	w.resizer.log.WithField("directory", w.dir).Info("Watching folder")

	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Results returns resized files as they are written.
// Results are dropped when nobody reads them. The channel is closed by Stop.
func (w *Watcher) Results() <-chan Result {
	return w.results
}

// processEvents debounces fsnotify events per file
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			// Skip hidden and temp files, and our own output
			base := filepath.Base(event.Name)
			if strings.HasPrefix(base, ".") {
				continue
			}
			if strings.Contains(common.FileStem(event.Name), common.ResizedMarker) {
				w.resizer.log.WithField("path", event.Name).Debug("Ignoring resized output")
				continue
			}

			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.resizer.log.WithError(err).Error("Watcher error")

		case <-w.done:
			return
		}
	}
}

// schedule (re)starts the debounce timer for path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, exists := w.timers[path]; exists {
		timer.Stop()
	}

	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		delete(w.timers, path)
		w.wg.Add(1)
		w.mu.Unlock()

		defer w.wg.Done()
		w.handle(path)
	})
}

// handle resizes one settled file; load failures are logged, not fatal
func (w *Watcher) handle(path string) {
	if !isRegular(path) {
		return
	}

	res, err := w.resizer.ResizeFile(path)
	if err != nil {
		w.resizer.log.WithField("path", path).WithError(err).Error("Failed to resize image")
		return
	}

	select {
	case w.results <- res:
	default:
	}
}

// Stop cancels pending resizes, waits for running ones and closes Results.
// Calling Stop more than once is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()

	// No handler can start once stopped is set, so Wait covers all of them
	w.wg.Wait()
	close(w.results)

	return err
}
