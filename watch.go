package weft

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads an engine's markup when the source file changes on
// disk. Compile failures are reported through the error callback and the
// previously loaded document stays active.
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
}

// Watch loads the markup file into the engine and reloads it on every
// change. The containing directory is watched rather than the file
// itself, since most editors replace files on save. onErr receives
// subsequent read and compile failures; nil means ignore.
func Watch(path string, engine *Engine, onErr func(error)) (*Watcher, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := engine.Load(string(src)); err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, err
	}

	w := &Watcher{fs: fs, done: make(chan struct{})}
	target := filepath.Clean(path)

	go func() {
		for {
			select {
			case event, ok := <-fs.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				src, err := os.ReadFile(target)
				if err == nil {
					err = engine.Load(string(src))
				}
				if err != nil && onErr != nil {
					onErr(err)
				}

			case err, ok := <-fs.Errors:
				if !ok {
					return
				}
				if onErr != nil {
					onErr(err)
				}

			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fs.Close()
}
