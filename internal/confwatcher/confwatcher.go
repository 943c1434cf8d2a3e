// Package confwatcher notifies about changes of the configuration file.
package confwatcher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultMinInterval = 1 * time.Second
	settleWait         = 10 * time.Millisecond
)

// ConfWatcher watches the directory of a configuration file, so that
// atomic replacements (remove + create, symlink swaps) are detected too.
type ConfWatcher struct {
	FilePath    string
	MinInterval time.Duration

	inner        *fsnotify.Watcher
	absolutePath string
	terminate    chan struct{}
	signal       chan struct{}
	done         chan struct{}
}

// Initialize initializes ConfWatcher.
func (w *ConfWatcher) Initialize() error {
	if w.MinInterval == 0 {
		w.MinInterval = defaultMinInterval
	}

	if _, err := os.Stat(w.FilePath); err != nil {
		return err
	}

	var err error
	w.inner, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Darwin reports absolute paths
	w.absolutePath, _ = filepath.Abs(w.FilePath)

	err = w.inner.Add(filepath.Dir(w.absolutePath))
	if err != nil {
		w.inner.Close() //nolint:errcheck
		return err
	}

	w.terminate = make(chan struct{})
	w.signal = make(chan struct{})
	w.done = make(chan struct{})

	go w.run()

	return nil
}

// Close closes ConfWatcher.
func (w *ConfWatcher) Close() {
	close(w.terminate)
	<-w.done
}

func resolve(p string) string {
	abs, _ := filepath.Abs(p)
	ret, _ := filepath.EvalSymlinks(abs)
	return ret
}

// changed tells whether an event in the watched directory concerns the configuration file.
func (w *ConfWatcher) changed(event fsnotify.Event, previous string, current string) bool {
	if current != previous {
		return true
	}
	if resolve(event.Name) != current {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *ConfWatcher) run() {
	defer close(w.done)
	defer w.inner.Close() //nolint:errcheck
	defer close(w.signal)

	var lastSignal time.Time
	previous := resolve(w.absolutePath)

	for {
		select {
		case event := <-w.inner.Events:
			if time.Since(lastSignal) < w.MinInterval {
				continue
			}

			current := resolve(w.absolutePath)

			// the file was removed, wait for it to come back
			if current == "" {
				previous = ""
				continue
			}

			if !w.changed(event, previous, current) {
				continue
			}

			// let the writer finish
			time.Sleep(settleWait)
			previous = current
			lastSignal = time.Now()

			select {
			case w.signal <- struct{}{}:
			case <-w.terminate:
				return
			}

		case <-w.inner.Errors:
			return

		case <-w.terminate:
			return
		}
	}
}

// Watch returns a channel that receives a value every time the file changes.
// It is closed when the watcher stops.
func (w *ConfWatcher) Watch() chan struct{} {
	return w.signal
}
